package loam

// ContractMetadata is the document shape of a contract in a Loam repository.
// The script may be given inline as Micheline JSON or as its YAML rendering.
type ContractMetadata struct {
	ID          string   `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	Tags        []string `json:"tags" mapstructure:"tags"`

	// Script holds the parameter, storage and code sections.
	Script any `json:"script" mapstructure:"script"`
}
