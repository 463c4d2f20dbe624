// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the user's ~/.sred directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable system instructions with embedded fallbacks
//   - Watcher: reloads prompts when their files change
package file
