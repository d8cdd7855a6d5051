package chat

import "context"

// Assistant streams a reply for one question. onChunk receives cleaned
// chunks in arrival order and returns when the stream has ended.
type Assistant interface {
	StreamChat(ctx context.Context, question, requestID string, onChunk func(chunk string)) error
}

// Run drives a full submission cycle for req: stream, then Complete or
// Fail, and always Release. progress, if set, is called after each chunk.
func Run(w *Widget, a Assistant, req *Request, progress func(*Accumulator)) (err error) {
	acc := &Accumulator{}
	defer w.Release(req)

	err = a.StreamChat(req.Context(), req.Question, req.ID, func(chunk string) {
		acc.Add(chunk)
		if progress != nil {
			progress(acc)
		}
	})
	if err != nil {
		w.Fail(req, err)
		return err
	}
	w.Complete(req, acc)
	return nil
}
