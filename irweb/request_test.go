package irweb

import "testing"

func TestParseRequestLine(t *testing.T) {
	tables := []struct {
		header   string
		expected Request
		ok       bool
	}{
		{"GET /b/power HTTP/1.1\r\nHost: tvremote\r\n\r\n", Request{"GET", "/b/power", "", "HTTP/1.1"}, true},
		{"GET /c/12?x=1 HTTP/1.0\r\n\r\n", Request{"GET", "/c/12", "x=1", "HTTP/1.0"}, true},
		{"GET /\n\n", Request{"GET", "/", "", ""}, true},
		{"POST /c6/4/247 HTTP/1.1\r\n", Request{"POST", "/c6/4/247", "", "HTTP/1.1"}, true},
		{"GET  /b/menu   HTTP/1.1\r\n", Request{"GET", "/b/menu", "", "HTTP/1.1"}, true},
		{"GET\r\n\r\n", Request{}, false},
		{"\r\n", Request{}, false},
		{"", Request{}, false},
	}

	for _, table := range tables {
		got, ok := ParseRequestLine(table.header)
		if ok != table.ok {
			t.Errorf("%q: expected ok %v, got %v", table.header, table.ok, ok)
			continue
		}
		if got != table.expected {
			t.Errorf("%q: expected %+v, got %+v", table.header, table.expected, got)
		}
	}
}
