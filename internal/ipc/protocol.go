package ipc

// Request is one dictation control command sent over the session
// socket. Supported commands are ping, status, and stop.
type Request struct {
	Command string `json:"command"`
}

// Response is the session's reply. State carries the controller phase
// (idle, recording, draining, ended); status replies also identify the
// active transcription engine and the configured language mode so
// callers need not parse them out of Message.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Engine  string `json:"engine,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
