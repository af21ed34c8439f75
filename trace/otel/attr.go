package otel

import "go.opentelemetry.io/otel/attribute"

// maxAttrLength bounds string attributes carrying tool payloads.
const maxAttrLength = 4096

// Attribute keys following OpenTelemetry semantic conventions where applicable.
func llmModelAttr(model string) attribute.KeyValue {
	return attribute.String("llm.model", model)
}

func llmInputTokensAttr(tokens int) attribute.KeyValue {
	return attribute.Int("llm.input_tokens", tokens)
}

func llmOutputTokensAttr(tokens int) attribute.KeyValue {
	return attribute.Int("llm.output_tokens", tokens)
}

func llmFunctionCallsAttr(n int) attribute.KeyValue {
	return attribute.Int("llm.function_calls", n)
}

func toolNameAttr(name string) attribute.KeyValue {
	return attribute.String("tool.name", name)
}

func toolArgsAttr(args string) attribute.KeyValue {
	return attribute.String("tool.args", truncate(args))
}

func toolResultAttr(result string) attribute.KeyValue {
	return attribute.String("tool.result", truncate(result))
}

func eventDataAttr(data string) attribute.KeyValue {
	return attribute.String("event.data", truncate(data))
}

func truncate(s string) string {
	if len(s) <= maxAttrLength {
		return s
	}
	return s[:maxAttrLength] + "...(truncated)"
}
