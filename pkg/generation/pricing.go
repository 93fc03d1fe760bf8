package generation

// DefaultModel is used when a campaign's agent config names no model.
const DefaultModel = "gpt-4o-mini"

type modelPrice struct {
	prompt     float64
	completion float64
}

// modelPrices holds USD per one million tokens.
var modelPrices = map[string]modelPrice{
	"gpt-4o-mini": {prompt: 0.15, completion: 0.60},
	"gpt-4o":      {prompt: 2.50, completion: 10.00},
}

// CostFor prices a call's usage in USD. Unknown models cost zero.
func CostFor(model string, usage Usage) float64 {
	price, ok := modelPrices[model]
	if !ok {
		return 0
	}

	promptCost := float64(usage.PromptTokens) * price.prompt / 1_000_000
	completionCost := float64(usage.CompletionTokens) * price.completion / 1_000_000

	return promptCost + completionCost
}
