package constant

import "video-summary-be/pkg/prompt"

const (
	SummaryInstruction = "You are an expert in summarizing YouTube videos.Your goal is to create a summary of a video from the transcript provided. Provide a detailed bullet point summary."

	// Map step: one transcript chunk.
	SummaryQuestionPromptV1 = SummaryInstruction + `

Use the following portion of the transcript:
------------
{text}
------------
BULLET POINT SUMMARY:`

	// Reduce step: the joined partial summaries.
	SummaryCombinePromptV1 = SummaryInstruction + `

The following are summaries of consecutive parts of the same video, in order:
------------
{text}
------------
Merge them into one summary. Keep the bullet points in the order the video covers them and drop duplicates.
BULLET POINT SUMMARY:`

	SummaryRefineInitialPromptV1 = SummaryQuestionPromptV1

	SummaryRefinePromptV1 = `Your job is to produce a final summary of a YouTube video.
We have provided an existing summary up to a certain point:
------------
{existing_answer}
------------
We have the opportunity to refine the existing summary (only if needed) with some more of the transcript below.
------------
{text}
------------
Given the new context, refine the original summary as a detailed bullet point summary.
If the context isn't useful, return the original summary.
REFINED SUMMARY:`
)

var (
	SummaryQuestionPrompt      = prompt.MustNew("question", SummaryQuestionPromptV1, "text")
	SummaryCombinePrompt       = prompt.MustNew("combine", SummaryCombinePromptV1, "text")
	SummaryRefineInitialPrompt = prompt.MustNew("refine_initial", SummaryRefineInitialPromptV1, "text")
	SummaryRefinePrompt        = prompt.MustNew("refine", SummaryRefinePromptV1, "existing_answer", "text")
)
