// Package engine runs the embedded SQLite engine behind a message-passing
// worker and provides a typed client for it.
package engine

import (
	"fmt"
	"time"
)

// MessageType identifies a worker request or response.
type MessageType string

const (
	TypeConfigGet MessageType = "config-get"
	TypeOpen      MessageType = "open"
	TypeExec      MessageType = "exec"
	TypeClose     MessageType = "close"
	TypeError     MessageType = "error"
)

// DBID names a database opened by the worker.
type DBID string

// Request is a message sent to the worker.
type Request struct {
	Type          MessageType `json:"type"`
	MessageID     string      `json:"messageId"`
	DBID          DBID        `json:"dbId,omitempty"`
	Args          interface{} `json:"args,omitempty"`
	DepartureTime time.Time   `json:"departureTime"`
}

// Response is the worker's reply. Type is the request type on success and
// TypeError on failure, in which case Result is an ErrorResult.
type Response struct {
	Type               MessageType `json:"type"`
	MessageID          string      `json:"messageId"`
	DBID               DBID        `json:"dbId,omitempty"`
	DepartureTime      time.Time   `json:"departureTime"`
	WorkerReceivedTime time.Time   `json:"workerReceivedTime"`
	WorkerRespondTime  time.Time   `json:"workerRespondTime"`
	Result             interface{} `json:"result,omitempty"`
}

// RoundTrip is the time from departure to the worker's reply.
func (r *Response) RoundTrip() time.Duration {
	if r.DepartureTime.IsZero() {
		return 0
	}
	return r.WorkerRespondTime.Sub(r.DepartureTime)
}

// OpenArgs are the arguments of an open request.
type OpenArgs struct {
	// Filename is a path, a file: URI, or ":memory:" (the default).
	Filename string `json:"filename"`
}

// OpenResult reports an opened database.
type OpenResult struct {
	DBID       DBID   `json:"dbId"`
	Filename   string `json:"filename"`
	Persistent bool   `json:"persistent"`
}

// ExecArgs are the arguments of an exec request. Bind values are positional.
type ExecArgs struct {
	SQL        string        `json:"sql"`
	Bind       []interface{} `json:"bind,omitempty"`
	ReturnRows bool          `json:"returnRows"`
}

// ExecResult holds rows for ReturnRows requests and the change counters
// otherwise.
type ExecResult struct {
	SQL          string          `json:"sql"`
	Columns      []string        `json:"columns,omitempty"`
	ResultRows   [][]interface{} `json:"resultRows,omitempty"`
	RowsAffected int64           `json:"rowsAffected"`
	LastInsertID int64           `json:"lastInsertId"`
}

// CloseResult reports a closed database.
type CloseResult struct {
	DBID     DBID   `json:"dbId"`
	Filename string `json:"filename"`
}

// ConfigResult describes the engine.
type ConfigResult struct {
	Driver        string `json:"driver"`
	Version       string `json:"version"`
	OpenDatabases int    `json:"openDatabases"`
}

// ErrorResult is the payload of a TypeError response.
type ErrorResult struct {
	Operation MessageType `json:"operation"`
	Message   string      `json:"message"`
	Input     interface{} `json:"input,omitempty"`
}

// ResponseError is an ErrorResult surfaced as a Go error by the Client.
type ResponseError struct {
	Operation MessageType
	Message   string
	Input     interface{}
	MessageID string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("engine %s failed: %s", e.Operation, e.Message)
}
