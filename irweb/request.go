package irweb

import "strings"

// Request is the tokenized request line of a header block.
type Request struct {
	Method  string
	Path    string
	Query   string
	Version string
}

// ParseRequestLine tokenizes the first line of header. It returns false if
// the line doesn't have a method and a target.
func ParseRequestLine(header string) (Request, bool) {
	line := header
	if i := strings.IndexByte(line, '\n'); i != -1 {
		line = line[:i]
	}
	line = strings.TrimRight(line, "\r")

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Request{}, false
	}

	req := Request{Method: fields[0]}
	target := fields[1]
	if i := strings.IndexByte(target, '?'); i != -1 {
		req.Query = target[i+1:]
		target = target[:i]
	}
	req.Path = target
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return req, true
}
