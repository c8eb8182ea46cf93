// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - Load: reads regelrag.toml or regelrag.yaml, .env and the environment into domain.Config
//   - ConfigStore: dotted-key access to the configuration file for the config command
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
