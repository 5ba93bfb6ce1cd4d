// Package tsfile heuristically parses the metadata header of CASP TS model
// files.
//
// A TS file is a semi-structured text file: a free-form header of metadata
// lines followed by coordinate-like data. Headers in the wild are messy.
// Keywords get truncated by fixed-width tooling ("ETHOD" for "METHOD"),
// keys repeat their own name in the value ("SCORE: SCORE: 0.72"), and
// whole lines arrive garbled. The parser is therefore best-effort: it
// recognizes a fixed set of canonical fields through fuzzy substring
// aliases and captures everything else verbatim. The scan stops for good
// at the first line that looks like coordinate data.
//
// A typical header:
//
//	REMARK submitted by group 042
//	METHOD: template-based modeling
//	AUTHOR: 1234-5678-9000
//	SCORE: GDT 0.8231 (model 1)
//	STOICH: A2B2
//	MODEL 1
//	ATOM      1  N   ALA A   1      11.104  13.207   2.428 ...
//
// Each header line is consumed by exactly one bucket: a canonical field, the
// remarks list, a generic key/value capture, or a line-numbered fallback.
// Everything after the first coordinate-like line is ignored, except that a
// missing stoichiometry is synthesized from letter+digit tokens found in the
// entire file body, coordinate section included.
package tsfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Canonical field names recognized in TS headers.
const (
	KeyStoich   = "STOICH"
	KeyScore    = "SCORE"
	KeyMethod   = "METHOD"
	KeyAuthor   = "AUTHOR"
	KeyModel    = "MODEL"
	KeyFormat   = "FORMAT"
	KeyTitle    = "TITLE"
	KeyCompound = "COMPND"
)

// Scan bounds.
const (
	// DefaultMaxHeaderLines caps how many physical lines the header scan
	// inspects before giving up, independent of file size.
	DefaultMaxHeaderLines = 2000

	// maxCapturedLine is the longest trimmed line (in runes) the
	// unstructured fallback will record.
	maxCapturedLine = 300

	// retryPrefixLen is how much of the line the second identification pass
	// considers, to catch keywords split by truncation.
	retryPrefixLen = 20
)

// aliasEntry maps a canonical field to the substrings that identify it.
type aliasEntry struct {
	canon   string
	aliases []string
}

// keyAliases tolerates truncated or corrupted header keywords from
// fixed-width sources. Declaration order is the tie-break between
// overlapping aliases, so it must stay stable.
var keyAliases = []aliasEntry{
	{KeyStoich, []string{"STOICH", "STOICHIOMETR", "TOICH", "STOI"}},
	{KeyScore, []string{"SCORE", "GDT", "TM_SCORE", "TM-SCORE", "TM", "QMEAN"}},
	{KeyMethod, []string{"METHOD", "ETHOD"}},
	{KeyAuthor, []string{"AUTHOR", "UTHOR"}},
	{KeyModel, []string{"MODEL"}},
	{KeyFormat, []string{"FORMAT", "FRMAT", "FRM"}},
	{KeyTitle, []string{"TITLE", "TITL"}},
	{KeyCompound, []string{"COMPND", "COMPOUND", "COMPONENT"}},
}

// coordKeywords are record types that mark the start of coordinate data.
// Matched as prefixes of the trimmed, uppercased line.
var coordKeywords = []string{"ATOM", "HETATM", "TER", "ENDMDL"}

var (
	// Three whitespace-separated decimals with fractional parts, anywhere.
	coordTripleRe = regexp.MustCompile(`[-+]?\d+\.\d+\s+[-+]?\d+\.\d+\s+[-+]?\d+\.\d+`)
	// Columnar coordinate record: serial, four tokens, signed decimal.
	coordColumnRe = regexp.MustCompile(`^\s*\d+\s+\S+\s+\S+\s+\S+\s+\S+\s+[-+]?\d+\.\d+`)
	// Values starting like "12 CA" are coordinate noise, not field values.
	noisyValueRe = regexp.MustCompile(`^\s*\d+\s+[A-Z0-9]`)
	// Generic "key : value" / "key - value" header shape.
	genericKVRe = regexp.MustCompile(`^\s*([A-Za-z0-9_\- ]{1,60}?)\s*[:\-]\s*(.+)$`)
	// First decimal-or-integer token inside a score value.
	numericTokenRe = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)
	// Stoichiometry pairs like "A2" or "A: 2" or "A = 2".
	stoichPairRe = regexp.MustCompile(`([A-Za-z]+)\s*[:=]?\s*(\d+)`)
	// Compact letter+digits runs, the last-resort stoichiometry shape.
	stoichCompactRe = regexp.MustCompile(`[A-Za-z]\d+`)
)

// OtherField is one unrecognized header capture, in file order.
type OtherField struct {
	Key   string // header key, or "LINE_<n>" for unparsed lines
	Value string // trimmed value or line text
}

// Record holds the metadata extracted from one TS file. Canonical fields are
// empty strings when the header did not yield them; the parser never stores
// an empty value.
type Record struct {
	Stoich   string
	Score    string
	Method   string
	Author   string
	Model    string
	Format   string
	Title    string
	Compound string

	// Remarks are the trimmed REMARK lines, in file order.
	Remarks []string

	// Other collects header lines that matched no canonical field, in
	// insertion order: generic key/value captures keyed by their own key,
	// unparsed lines keyed "LINE_<n>" by 0-based physical line index.
	Other []OtherField
}

// Field returns the value stored under a canonical field name
// (one of the Key* constants). Unknown names return "".
func (r *Record) Field(canon string) string {
	switch canon {
	case KeyStoich:
		return r.Stoich
	case KeyScore:
		return r.Score
	case KeyMethod:
		return r.Method
	case KeyAuthor:
		return r.Author
	case KeyModel:
		return r.Model
	case KeyFormat:
		return r.Format
	case KeyTitle:
		return r.Title
	case KeyCompound:
		return r.Compound
	default:
		return ""
	}
}

func (r *Record) setField(canon, val string) {
	switch canon {
	case KeyStoich:
		r.Stoich = val
	case KeyScore:
		r.Score = val
	case KeyMethod:
		r.Method = val
	case KeyAuthor:
		r.Author = val
	case KeyModel:
		r.Model = val
	case KeyFormat:
		r.Format = val
	case KeyTitle:
		r.Title = val
	case KeyCompound:
		r.Compound = val
	}
}

// Options configures a parse.
type Options struct {
	// MaxHeaderLines caps the physical line index the header scan will
	// visit. Values < 1 fall back to DefaultMaxHeaderLines.
	MaxHeaderLines int

	// Logger receives scan trace at debug level. Nil means no logging.
	Logger *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithMaxHeaderLines overrides the header scan cap.
// Values < 1 keep the default.
func WithMaxHeaderLines(n int) Option {
	return func(o *Options) {
		o.MaxHeaderLines = n
	}
}

// WithLogger attaches a logger for scan tracing.
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

func applyOptions(opts []Option) Options {
	options := Options{MaxHeaderLines: DefaultMaxHeaderLines}

	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	if options.MaxHeaderLines < 1 {
		options.MaxHeaderLines = DefaultMaxHeaderLines
	}

	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	return options
}

// Parse extracts metadata from an in-memory TS file. It cannot fail: every
// input yields a Record, possibly one with no recognized fields.
func Parse(src []byte, opts ...Option) *Record {
	options := applyOptions(opts)

	rec, _ := scanHeader(&sliceSource{data: src}, options)

	finishRecord(rec, func() string { return string(src) }, options)

	return rec
}

// ParseReader extracts metadata from a stream. Read failures mid-scan are
// returned alongside the partially built record; the record is still usable
// and callers decide whether to surface the error.
func ParseReader(r io.Reader, opts ...Option) (*Record, error) {
	options := applyOptions(opts)

	source := &readerSource{r: bufio.NewReader(r)}

	rec, scanErr := scanHeader(source, options)

	finishRecord(rec, source.collectAll, options)

	if scanErr != nil {
		return rec, fmt.Errorf("scan header: %w", scanErr)
	}

	return rec, nil
}

// ParseFile extracts metadata from the TS file at path. A file that cannot
// be opened yields (nil, error); a read failure mid-scan yields the partial
// record and the error, like ParseReader.
func ParseFile(path string, opts ...Option) (*Record, error) {
	options := applyOptions(opts)

	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, fmt.Errorf("open ts file: %w", openErr)
	}

	defer func() { _ = file.Close() }()

	rec, scanErr := scanHeader(&readerSource{r: bufio.NewReader(file)}, options)

	// Stoichiometry synthesis reads the whole file fresh; a failure here
	// just means no synthesis, never a parse failure.
	finishRecord(rec, func() string {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return ""
		}

		return string(data)
	}, options)

	if scanErr != nil {
		return rec, fmt.Errorf("scan header of %s: %w", path, scanErr)
	}

	return rec, nil
}

// lineSource yields physical lines without their terminators.
type lineSource interface {
	next() (line string, ok bool, err error)
}

type sliceSource struct {
	data []byte
	idx  int
}

func (s *sliceSource) next() (string, bool, error) {
	if s.idx >= len(s.data) {
		return "", false, nil
	}

	start := s.idx
	for s.idx < len(s.data) && s.data[s.idx] != '\n' {
		s.idx++
	}

	end := s.idx
	if s.idx < len(s.data) {
		s.idx++ // consume '\n'
	}

	if end > start && s.data[end-1] == '\r' {
		end--
	}

	return string(s.data[start:end]), true, nil
}

// readerSource reads lines from a stream while keeping everything consumed,
// so stoichiometry synthesis can see the full text without re-reading.
type readerSource struct {
	r       *bufio.Reader
	capture strings.Builder
}

func (s *readerSource) next() (string, bool, error) {
	chunk, readErr := s.r.ReadString('\n')
	if chunk != "" {
		s.capture.WriteString(chunk)
	}

	if readErr != nil {
		if errors.Is(readErr, io.EOF) {
			if chunk == "" {
				return "", false, nil
			}

			return trimLineEnd(chunk), true, nil
		}

		return "", false, fmt.Errorf("read line: %w", readErr)
	}

	return trimLineEnd(chunk), true, nil
}

// collectAll returns every byte consumed so far plus whatever remains in the
// stream, best-effort.
func (s *readerSource) collectAll() string {
	rest, _ := io.ReadAll(s.r)
	s.capture.Write(rest)

	return s.capture.String()
}

func trimLineEnd(line string) string {
	line = strings.TrimSuffix(line, "\n")

	return strings.TrimSuffix(line, "\r")
}

// scanHeader walks the header line by line. It always returns a non-nil
// record; a non-nil error means the source failed mid-scan and the record is
// partial.
func scanHeader(source lineSource, options Options) (*Record, error) {
	rec := &Record{}
	otherSeen := make(map[string]bool)
	log := options.Logger

	for idx := 0; ; idx++ {
		line, ok, readErr := source.next()
		if readErr != nil {
			return rec, readErr
		}

		if !ok {
			break
		}

		if idx > options.MaxHeaderLines {
			log.Debug("header scan hit line cap", zap.Int("max_header_lines", options.MaxHeaderLines))

			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if looksLikeCoordinateLine(line) {
			log.Debug("header scan stopped at coordinate-like line", zap.Int("line", idx))

			break
		}

		upper := strings.ToUpper(line)
		if strings.HasPrefix(strings.TrimSpace(upper), "REMARK") {
			rec.Remarks = append(rec.Remarks, trimmed)

			continue
		}

		canon := identifyCanonicalKey(upper, leftToken(line))
		if canon != "" {
			val := stripLeadingAlias(extractValue(line))

			// Values that look like coordinate data are noise from a
			// malformed header; the line is consumed either way.
			if looksLikeCoordinateLine(val) || noisyValueRe.MatchString(val) {
				continue
			}

			if val != "" {
				rec.setField(canon, val)
				log.Debug("canonical field matched", zap.String("field", canon), zap.Int("line", idx))
			}

			continue
		}

		if m := genericKVRe.FindStringSubmatch(line); m != nil {
			key := strings.TrimSpace(m[1])
			val := strings.TrimSpace(m[2])

			if key != "" && val != "" && !otherSeen[key] {
				otherSeen[key] = true
				rec.Other = append(rec.Other, OtherField{Key: key, Value: val})
			}

			continue
		}

		if utf8.RuneCountInString(trimmed) < maxCapturedLine {
			tag := fmt.Sprintf("LINE_%d", idx)
			if !otherSeen[tag] {
				otherSeen[tag] = true
				rec.Other = append(rec.Other, OtherField{Key: tag, Value: trimmed})
			}
		}
	}

	return rec, nil
}

// finishRecord runs the post-scan passes: stoichiometry synthesis from the
// full file text when the header had none, and score normalization down to
// its first numeric token. fullText is only invoked when synthesis is
// actually needed.
func finishRecord(rec *Record, fullText func() string, options Options) {
	if rec.Stoich == "" {
		if found := synthesizeStoich(fullText()); found != "" {
			rec.Stoich = found
			options.Logger.Debug("synthesized stoichiometry from file body", zap.String("stoich", found))
		}
	}

	if rec.Score != "" {
		if num := numericTokenRe.FindString(rec.Score); num != "" {
			rec.Score = num
		}
	}
}

// looksLikeCoordinateLine reports whether a line (or a candidate field
// value) is coordinate data rather than header text.
func looksLikeCoordinateLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if coordTripleRe.MatchString(line) {
		return true
	}

	upper := strings.ToUpper(trimmed)
	for _, keyword := range coordKeywords {
		if strings.HasPrefix(upper, keyword) {
			return true
		}
	}

	return coordColumnRe.MatchString(line)
}

// leftToken extracts the uppercased key portion of a line: the text before
// the first colon when present, otherwise the first whitespace-delimited
// word.
func leftToken(line string) string {
	if before, _, found := strings.Cut(line, ":"); found {
		return strings.ToUpper(strings.TrimSpace(before))
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	return strings.ToUpper(fields[0])
}

// identifyCanonicalKey resolves a header line to a canonical field name, or
// "" when nothing matches. The first pass looks for alias substrings
// anywhere in the uppercased line; the second pass re-checks canonical names
// against the left token glued to the line's first 20 characters, which
// recovers keywords mangled by fixed-width truncation.
func identifyCanonicalKey(lineUpper, leftTokenUpper string) string {
	for _, entry := range keyAliases {
		for _, alias := range entry.aliases {
			if strings.Contains(lineUpper, alias) {
				return entry.canon
			}
		}
	}

	if leftTokenUpper == "" {
		return ""
	}

	prefix := lineUpper
	if len(prefix) > retryPrefixLen {
		prefix = prefix[:retryPrefixLen]
	}

	candidate := leftTokenUpper + prefix
	for _, entry := range keyAliases {
		if strings.Contains(candidate, entry.canon) {
			return entry.canon
		}
	}

	return ""
}

// extractValue pulls the value portion of a recognized header line:
// everything after the first colon when present, otherwise everything after
// the first whitespace run. Trailing spaces, periods and semicolons are
// stripped.
func extractValue(line string) string {
	if _, after, found := strings.Cut(line, ":"); found {
		return trimValue(after)
	}

	trimmed := strings.TrimSpace(line)

	cut := strings.IndexFunc(trimmed, unicode.IsSpace)
	if cut >= 0 {
		return trimValue(trimmed[cut:])
	}

	return trimValue(trimmed)
}

func trimValue(val string) string {
	return strings.TrimRight(strings.TrimSpace(val), " .;")
}

// stripLeadingAlias removes doubled key text from a value ("SCORE: 0.72"
// inside a SCORE line becomes "0.72"). The strip is applied at most once and
// only when it leaves something behind.
func stripLeadingAlias(val string) string {
	if val == "" {
		return val
	}

	upper := strings.ToUpper(val)
	for _, entry := range keyAliases {
		for _, alias := range entry.aliases {
			if !strings.HasPrefix(upper, alias) {
				continue
			}

			stripped := strings.TrimLeft(val[len(alias):], " :-.")
			if stripped != "" {
				return stripped
			}
		}
	}

	return val
}

// synthesizeStoich derives a compact stoichiometry string from arbitrary
// text: letter groups paired with digits ("A: 2 B: 3" becomes "A2B3"),
// keeping the first occurrence of each letter group. When no such pair
// exists, compact letter+digit runs are concatenated as-is. The caller
// feeds it the entire file body, coordinate section included, so atom-name
// tokens can leak into the result.
func synthesizeStoich(text string) string {
	if text == "" {
		return ""
	}

	pairs := stoichPairRe.FindAllStringSubmatch(text, -1)
	if len(pairs) > 0 {
		seen := make(map[string]bool, len(pairs))

		var out strings.Builder

		for _, pair := range pairs {
			letters := pair[1]
			if seen[letters] {
				continue
			}

			seen[letters] = true
			out.WriteString(letters)
			out.WriteString(pair[2])
		}

		return out.String()
	}

	if compact := stoichCompactRe.FindAllString(text, -1); compact != nil {
		return strings.Join(compact, "")
	}

	return ""
}
