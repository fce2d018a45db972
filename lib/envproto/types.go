// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package envproto

import "github.com/lawrencecchen/cmux-env/lib/codec"

// Action names routed by the daemon. One request carries exactly one
// action; the connection closes after the response.
const (
	ActionPing     = "ping"
	ActionStatus   = "status"
	ActionSet      = "set"
	ActionUnset    = "unset"
	ActionGet      = "get"
	ActionList     = "list"
	ActionExport   = "export"
	ActionLoad     = "load"
	ActionShutdown = "shutdown"
)

// Shell identifies the syntax family for rendered export commands.
type Shell string

const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ParseShell maps a CLI argument to a Shell, reporting whether the
// name is one of the supported shells.
func ParseShell(name string) (Shell, bool) {
	switch Shell(name) {
	case ShellBash, ShellZsh, ShellFish:
		return Shell(name), true
	}
	return "", false
}

// Entry is one key/value pair in a load request. Order is preserved:
// later entries win when a key repeats.
type Entry struct {
	Key   string `cbor:"key"`
	Value string `cbor:"value"`
}

// Request is the single wire request type. Action selects the
// operation; the remaining fields are action-specific and zero-valued
// when unused.
//
// Dir scopes a mutation to a directory subtree; empty means the
// global scope. Pwd is the client's current working directory for
// effective-value resolution. PrevPwd is the directory the shell was
// in when it last applied an export, used to diff across directory
// moves.
type Request struct {
	Action string `cbor:"action"`

	Key   string `cbor:"key,omitempty"`
	Value string `cbor:"value,omitempty"`
	Dir   string `cbor:"dir,omitempty"`

	Pwd     string `cbor:"pwd,omitempty"`
	PrevPwd string `cbor:"prev_pwd,omitempty"`

	Shell Shell  `cbor:"shell,omitempty"`
	Since uint64 `cbor:"since,omitempty"`

	Entries []Entry `cbor:"entries,omitempty"`
}

// Response is the wire-format envelope for all responses. On success
// OK is true and Data holds the action-specific payload (absent for
// actions with nothing to report beyond the envelope). On failure OK
// is false and Err describes what went wrong.
type Response struct {
	OK   bool             `cbor:"ok"`
	Err  *Error           `cbor:"error,omitempty"`
	Data codec.RawMessage `cbor:"data,omitempty"`
}

// Pong is the payload of a successful ping response.
type Pong struct {
	Gen uint64 `cbor:"gen"`
}

// Ack is the payload for mutations: the generation observable after
// the mutation was applied.
type Ack struct {
	Gen uint64 `cbor:"gen"`
}

// ScopeCount is one directory overlay's size in a status response.
// Tagged json: this type reaches `envctl status --json` output, and
// the CBOR codec reads json tags as fallback.
type ScopeCount struct {
	Dir  string `json:"dir"`
	Vars int    `json:"vars"`
}

// StatusInfo summarizes daemon state. Tagged json (CLI output type).
type StatusInfo struct {
	Gen        uint64       `json:"gen"`
	Globals    int          `json:"globals"`
	Overlays   int          `json:"overlays"`
	Tombstones int          `json:"tombstones"`
	Scopes     []ScopeCount `json:"scopes,omitempty"`
}

// Value is the payload of a get response. Present distinguishes an
// empty value from an undefined key. Tagged json (CLI output type).
type Value struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

// ListItem is one effective variable in a list response, with the
// scope that supplied its value ("global" or the overlay directory).
// Tagged json (CLI output type).
type ListItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Scope string `json:"scope"`
}

// Listing is the payload of a list response. Items are sorted by key.
type Listing struct {
	Items []ListItem `cbor:"items"`
}

// Exported is the payload of an export response: the shell commands
// to apply, in deterministic order (unsets before sets, each sorted
// by key), and the generation the snapshot was taken at. The client
// appends the watermark assignment for Gen itself.
type Exported struct {
	Gen      uint64   `cbor:"gen"`
	Commands []string `cbor:"commands,omitempty"`
}
