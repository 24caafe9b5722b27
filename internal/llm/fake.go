package llm

import "context"

// FakeClient returns canned responses for offline use and tests.
type FakeClient struct {
	Response string
	Err      error

	// Prompts records every prompt passed in, in order.
	Prompts []string
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateText(_ context.Context, prompt string) (string, error) {
	f.Prompts = append(f.Prompts, prompt)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}
