package engine

// Fixed generation parameters for the completion endpoint.
const (
	DefaultModel       = "gpt-4"
	DefaultMaxTokens   = 300
	DefaultTemperature = float32(0.7)

	// ContextBudget is the character ceiling applied to text submitted to
	// the completion endpoint.
	ContextBudget = 4096

	// NoResponseSentinel replaces a reply whose first choice is missing.
	NoResponseSentinel = "No response received."

	systemPreamble = "You are a helpful assistant. Context: "
)

// DispatchConfig holds the knobs of one Dispatcher.
type DispatchConfig struct {
	Model         string
	MaxTokens     int
	Temperature   *float32 // nil means DefaultTemperature; zero is a valid setting
	ContextBudget int
}

// DefaultDispatchConfig returns the parameters the endpoint expects.
func DefaultDispatchConfig() DispatchConfig {
	temp := DefaultTemperature
	return DispatchConfig{
		Model:         DefaultModel,
		MaxTokens:     DefaultMaxTokens,
		Temperature:   &temp,
		ContextBudget: ContextBudget,
	}
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	d := DefaultDispatchConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Temperature == nil || *c.Temperature < 0 {
		c.Temperature = d.Temperature
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = d.ContextBudget
	}
	return c
}
