package alfred

import "context"

type (
	MessageHook      func(ctx context.Context, msg string) error
	ToolRequestHook  func(ctx context.Context, call FunctionCall) error
	ToolResponseHook func(ctx context.Context, call FunctionCall, result string) error
)

func defaultMessageHook(ctx context.Context, msg string) error {
	return nil
}

func defaultToolRequestHook(ctx context.Context, call FunctionCall) error {
	return nil
}

func defaultToolResponseHook(ctx context.Context, call FunctionCall, result string) error {
	return nil
}
