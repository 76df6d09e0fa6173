package llm

import "context"

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Close() error
}

// Collect drains a stream into one string, handing each chunk to onChunk.
func Collect(chunks <-chan string, errs <-chan error, onChunk func(string)) (string, error) {
	var out []byte
	for c := range chunks {
		out = append(out, c...)
		if onChunk != nil {
			onChunk(c)
		}
	}
	if err, ok := <-errs; ok && err != nil {
		return string(out), err
	}
	return string(out), nil
}
