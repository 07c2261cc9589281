// Package log is the process-level logging for the board app: daily log
// files for regular and error logs, a JSON-line http request log and an
// event log in toon format. The board core doesn't log; only the web and
// process boundary does.
package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

var (
	logFile   *WriteDaily
	errorsLog *WriteDaily
	httpLog   *WriteDaily
	eventsLog *WriteDaily

	// if true, Verbosef() will log messages
	Verbose bool
)

// WriteDaily appends to a file named after the current UTC date inside
// Dir, switching files when the date changes.
type WriteDaily struct {
	Dir string

	currentDate int // YYYYMMDD
	file        *os.File
	mu          sync.Mutex
}

func NewWriteDaily(dir string) *WriteDaily {
	return &WriteDaily{Dir: dir}
}

func dayFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Writer returns an io.Writer for today's log file, creating it if
// needed. Safe to call on nil receiver.
func (w *WriteDaily) Writer() (io.Writer, error) {
	if w == nil {
		return nil, fmt.Errorf("w is nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now().UTC()
	today := dayFromTime(now)
	if w.file != nil && w.currentDate != today {
		if err := w.close(); err != nil {
			return nil, err
		}
	}
	if w.file == nil {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return nil, err
		}
		path := filepath.Join(w.Dir, now.Format("2006-01-02")+".txt")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w.file = f
		w.currentDate = today
	}
	return w.file, nil
}

// Write writes to the daily log file. Safe to call on nil receiver.
func (w *WriteDaily) Write(d []byte) error {
	if w == nil {
		return nil
	}
	wr, err := w.Writer()
	if err != nil {
		return err
	}
	_, err = wr.Write(d)
	return err
}

func (w *WriteDaily) WriteString(s string) error {
	return w.Write([]byte(s))
}

func (w *WriteDaily) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.currentDate = 0
	return err
}

// Close closes the daily log file. Safe to call on nil receiver.
func (w *WriteDaily) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.close()
}

// Init sets up the logging system. Log files go to sub-directories of
// dir, one per log type.
func Init(dir string) {
	logFile = NewWriteDaily(filepath.Join(dir, "log"))
	errorsLog = NewWriteDaily(filepath.Join(dir, "errors"))
	// these don't create files until first written to so an app that
	// doesn't log http requests or events pays nothing
	httpLog = NewWriteDaily(filepath.Join(dir, "http"))
	eventsLog = NewWriteDaily(filepath.Join(dir, "events"))
}

func closeWriteDaily(wd **WriteDaily) {
	(*wd).Close()
	*wd = nil
}

func Close() {
	closeWriteDaily(&logFile)
	closeWriteDaily(&errorsLog)
	closeWriteDaily(&httpLog)
	closeWriteDaily(&eventsLog)
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	fmt.Print(s)
	logFile.WriteString(s)
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

func getCallstack(skip int) string {
	var callers [32]uintptr
	n := runtime.Callers(skip+2, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		cs = append(cs, frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return strings.Join(cs, "\n")
}

// Errorf logs an error message along with the callstack
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	cs := getCallstack(1)
	Logf("%s\n%s\n", s, cs)
	errorsLog.WriteString(s + "\n" + cs + "\n")
}

// IfErrf logs err if it's not nil and returns true if it was
func IfErrf(err error, args ...any) bool {
	if err == nil {
		return false
	}
	if len(args) == 0 {
		Errorf("%s", err.Error())
		return true
	}
	s, ok := args[0].(string)
	if !ok {
		s = fmt.Sprintf("%s", args[0])
	}
	if len(args) > 1 {
		s = fmt.Sprintf(s, args[1:]...)
	}
	Errorf("%s", s)
	return true
}

// marshalRecord frames data so that multiple records can be appended to
// the same file and parsed back. Format:
// "--- <length> <unix ms> <name>\n" followed by data and a newline.
func marshalRecord(name string, t time.Time, d []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("--- ")
	buf.WriteString(strconv.Itoa(len(d)))
	buf.WriteString(" ")
	buf.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	if name != "" {
		buf.WriteString(" ")
		buf.WriteString(name)
	}
	buf.WriteByte('\n')
	if len(d) > 0 {
		buf.Write(d)
		if d[len(d)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// Event logs a named event with key/value pairs in toon format
func Event(name string, vals ...any) {
	n := len(vals)
	panicIf(n%2 != 0, "even number of vals needed")
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			m[fmt.Sprintf("%v", vals[i])] = vals[i+1]
		}
		d, _ = toon.Marshal(m)
	}
	rec := marshalRecord(name, time.Now().UTC(), d)
	eventsLog.Write(rec)
}

func pickFirst(s string) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(parts[0])
}

// BestRemoteAddress picks the most accurate IP address of the client,
// needed because of proxies
func BestRemoteAddress(r *http.Request) string {
	h := r.Header
	potentials := []string{h.Get("CF-Connecting-IP"), h.Get("X-Real-Ip"), h.Get("X-Forwarded-For"), r.RemoteAddr}
	for _, v := range potentials {
		if v != "" {
			return pickFirst(v)
		}
	}
	return ""
}

// HTTPRequest writes one JSON line per request to the http log
func HTTPRequest(r *http.Request, code int, size int64, dur time.Duration) error {
	rawQuery := r.URL.RawQuery
	if len(rawQuery) > 128 {
		rawQuery = rawQuery[:128]
	}
	entry := map[string]any{
		"ts":     time.Now().UTC().Unix(),
		"method": r.Method,
		"url":    r.URL.Path,
		"query":  rawQuery,
		"ip":     BestRemoteAddress(r),
		"code":   code,
		"size":   size,
		"dur":    float64(dur.Microseconds()) / 1000.0, // milliseconds
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		entry["referer"] = referer
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		entry["ua"] = ua
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	// avoid unnecessary escaping
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return err
	}
	// Encode adds the newline
	return httpLog.Write(buf.Bytes())
}

func panicIf(cond bool, args ...any) {
	if !cond {
		return
	}
	s := "condition failed"
	if len(args) > 0 {
		s = fmt.Sprintf("%s", args[0])
		if len(args) > 1 {
			s = fmt.Sprintf(s, args[1:]...)
		}
	}
	panic(s)
}
