package assistant

import (
	"fmt"

	"bitbucket.org/mmdatafocus/hr_backend/models/reports"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
)

// historyWindow bounds how many prior turns travel with a fallback call.
const historyWindow = 6

const ceoPromptTemplate = `You are an AI HR Analytics assistant for Al Khebra Driving School, advising the CEO.
Use ONLY the structured data in hr_overview. Do not invent numbers or QAR amounts.

hr_overview: %s

ANSWERING STYLE:
- Answer in 1 short headline sentence.
- Then 3-4 bullet points with detailed metrics (headcount, attrition, nationality, contracts, performance, departments).
- Each bullet must include specific numbers or percentages from the data.
- If a requested metric is missing, say it is not tracked yet and mention which ERP/Finance fields would be needed.
- Respond in %s.

Now answer the CEO's question, using only the data above. Keep it short but detailed in bullets.`

// buildSystemPrompt serializes the overview into the assistant's system
// turn. A marshalling failure degrades to an empty data block; the
// assistant then reports metrics as untracked instead of failing the call.
func buildSystemPrompt(overview *reports.Overview, language string) string {
	data, err := utils.MarshalToJSON(overview)
	if err != nil {
		data = "{}"
	}
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(ceoPromptTemplate, data, language)
}

// buildTurns appends the question to the last historyWindow turns.
func buildTurns(question string, history []Turn) []Turn {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, Turn{Role: RoleUser, Content: question})
	return turns
}
