package inference

import "fmt"

// ResponseSystemPrompt is the system prompt of the response model
const ResponseSystemPrompt = "You are a helpful assistant that provides concise and accurate answers based on given reasoning steps."

const reasoningPromptTemplate = `Context information:
%s

I want you to ONLY show your reasoning content about how to carry out the task using the given context.
Focus on analyzing the task and breaking down how you would approach it using the context provided.
DO NOT provide any final answer or conclusion.

Task: %s`

const responsePromptTemplate = `Original task: %s

Using ONLY the following reasoning process produced by a different model, provide your answer to the original task.
Base your answer solely on these logical steps and thought process.

Make sure to create a detailed but concise answer to the task.

Reasoning steps:
%s

Provide your direct answer to given task:`

// BuildReasoningPrompt asks the reasoning model for a trace over context
func BuildReasoningPrompt(query, context string) string {
	return fmt.Sprintf(reasoningPromptTemplate, context, query)
}

// BuildResponsePrompt asks the response model to answer query from reasoning alone.
// The retrieved context is deliberately absent.
func BuildResponsePrompt(query, reasoning string) string {
	return fmt.Sprintf(responsePromptTemplate, query, reasoning)
}
