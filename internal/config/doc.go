// Package config owns the launcher's on-disk state.
//
// Two files live in the per-user directory (~/.smartpad by default):
//
//   - config.json: the persisted presentation mode, {"mode":"Desktop"} or
//     {"mode":"Browser"}. Written by the launcher on every toggle and on a
//     forced-browser launch. Any missing, unreadable or malformed content is
//     treated as absent and yields the Desktop default.
//   - launcher.toml: optional, hand-edited. Describes the backend command and
//     its timeouts plus the log level. Missing means defaults; malformed is an
//     error.
package config
