package service

import (
	"regexp"
	"strings"

	"github.com/coursepilot/coursepilot/internal/domain"
)

// ChunkerConfig controls how extracted page text is split into chunks.
type ChunkerConfig struct {
	TargetSize int
	Overlap    int
}

// DefaultChunkerConfig provides sane defaults for chunking.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		TargetSize: 1000,
		Overlap:    200,
	}
}

var paragraphSeparator = regexp.MustCompile(`\n\s*\n`)

// splitIntoChunks accumulates paragraphs into buffers of roughly TargetSize
// characters. When a paragraph would overflow the buffer, the buffer is
// flushed and the next one is seeded with the trailing Overlap characters of
// the flushed text. Buffers that still exceed TargetSize (a single huge
// paragraph) are further split on sentence boundaries without overlap.
func splitIntoChunks(text string, cfg ChunkerConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.TargetSize <= 0 {
		cfg = DefaultChunkerConfig()
	}

	var buffers []string
	var buf string
	for _, para := range paragraphSeparator.Split(clean, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if buf == "" {
			buf = para
			continue
		}

		if len(buf)+2+len(para) > cfg.TargetSize {
			buffers = append(buffers, buf)
			buf = overlapTail(buf, cfg.Overlap) + "\n\n" + para
		} else {
			buf = buf + "\n\n" + para
		}
	}
	if buf != "" {
		buffers = append(buffers, buf)
	}

	chunks := make([]string, 0, len(buffers))
	for _, b := range buffers {
		if len(b) <= cfg.TargetSize {
			chunks = append(chunks, b)
			continue
		}
		chunks = append(chunks, splitOnSentences(b, cfg.TargetSize)...)
	}

	out := chunks[:0]
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// overlapTail returns the last n characters of s on a rune boundary.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// splitOnSentences packs whole sentences into chunks of at most targetSize
// characters. A single sentence longer than targetSize becomes its own chunk
// rather than being cut mid-sentence.
func splitOnSentences(text string, targetSize int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf string
	for _, sentence := range sentences {
		if buf == "" {
			buf = sentence
			continue
		}
		if len(buf)+1+len(sentence) > targetSize {
			chunks = append(chunks, buf)
			buf = sentence
		} else {
			buf = buf + " " + sentence
		}
	}
	if buf != "" {
		chunks = append(chunks, buf)
	}
	return chunks
}

// splitSentences splits text after terminal punctuation followed by
// whitespace. No sentence text is dropped; concatenating the result
// reproduces the input minus inter-sentence whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
				end++
			}
			if end >= len(runes) || runes[end] == ' ' || runes[end] == '\n' || runes[end] == '\t' {
				sentence := strings.TrimSpace(string(runes[start:end]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				i = end
				start = end
			}
		}
	}
	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

// Keyword vocabularies for chunk categorization. Scoring is a plain hit
// count so identical text always classifies identically.
var policyVocabulary = []string{
	"deadline", "due date", "late", "grading", "grade", "attendance",
	"submission", "submit", "penalty", "policy", "syllabus", "extension",
	"plagiarism", "academic integrity", "office hours", "exam", "makeup",
	"rubric", "participation",
}

var conceptVocabulary = []string{
	"algorithm", "definition", "theory", "theorem", "implementation",
	"example", "function", "data structure", "complexity", "proof",
	"formula", "equation", "concept", "method", "recursion", "analysis",
	"model", "derivation",
}

// classifyContent scores chunk text against both vocabularies; the higher
// hit count wins and ties resolve to policy, the higher-stakes category.
func classifyContent(text string) domain.ContentType {
	lower := strings.ToLower(text)

	policyHits := 0
	for _, kw := range policyVocabulary {
		policyHits += strings.Count(lower, kw)
	}

	conceptHits := 0
	for _, kw := range conceptVocabulary {
		conceptHits += strings.Count(lower, kw)
	}

	if conceptHits > policyHits {
		return domain.ContentTypeConcept
	}
	return domain.ContentTypePolicy
}

var weekPattern = regexp.MustCompile(`(?i)\bweek\s+(\d{1,2})\s*[:\-]?\s*([^\n.]*)`)

var topicStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "intro": {},
	"introduction": {}, "overview": {}, "basics": {}, "part": {},
}

// matchScheduleTopic finds the schedule entry whose topic best matches the
// chunk text. A topic matches when at least half of its significant words
// (minimum two) appear word-boundary-matched in the text.
func matchScheduleTopic(text string, schedule []domain.ScheduleEntry) *domain.ScheduleEntry {
	lower := strings.ToLower(text)

	var best *domain.ScheduleEntry
	bestMatched := 0
	for i := range schedule {
		entry := &schedule[i]
		words := significantWords(entry.Topic)
		if len(words) == 0 {
			continue
		}

		matched := 0
		for _, w := range words {
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(w) + `\b`)
			if err != nil {
				continue
			}
			if re.MatchString(lower) {
				matched++
			}
		}

		required := (len(words) + 1) / 2
		if required < 2 {
			required = 2
		}
		if matched >= required && matched > bestMatched {
			best = entry
			bestMatched = matched
		}
	}
	return best
}

// significantWords extracts lowercased topic words longer than three
// characters, excluding filler words.
func significantWords(topic string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		w = strings.Trim(w, ".,:;()[]\"'")
		if len(w) <= 3 {
			continue
		}
		if _, ok := topicStopwords[w]; ok {
			continue
		}
		words = append(words, w)
	}
	return words
}

// extractWeekFromText pulls a week number and trailing topic from an
// in-text "Week N: Topic" marker.
func extractWeekFromText(text string) (int, string, bool) {
	m := weekPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}

	week := 0
	for _, r := range m[1] {
		week = week*10 + int(r-'0')
	}
	if week < 1 {
		return 0, "", false
	}
	return week, strings.TrimSpace(m[2]), true
}

// ChunkInput describes one page of extracted text plus caller-supplied
// metadata overrides.
type ChunkInput struct {
	CourseID   string
	Source     string
	PageNumber *int
	WeekNumber *int
	Topic      string
	Text       string
}

// Chunker splits page text into categorized, metadata-annotated chunks.
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker creates a Chunker with the given configuration.
func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.TargetSize <= 0 {
		cfg = DefaultChunkerConfig()
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits the input text and annotates each chunk. Metadata precedence:
// explicit input values win, then a schedule topic match, then an in-text
// "Week N" marker. Embeddings are left nil for the caller to fill in.
func (c *Chunker) Chunk(input ChunkInput, schedule []domain.ScheduleEntry) []domain.Chunk {
	pieces := splitIntoChunks(input.Text, c.cfg)
	chunks := make([]domain.Chunk, 0, len(pieces))

	for _, piece := range pieces {
		chunk := domain.Chunk{
			CourseID:    input.CourseID,
			Source:      input.Source,
			Content:     piece,
			ContentType: classifyContent(piece),
			PageNumber:  input.PageNumber,
			WeekNumber:  input.WeekNumber,
			Topic:       input.Topic,
		}

		if chunk.WeekNumber == nil {
			if entry := matchScheduleTopic(piece, schedule); entry != nil {
				week := entry.WeekNumber
				chunk.WeekNumber = &week
				if chunk.Topic == "" {
					chunk.Topic = entry.Topic
				}
			} else if week, topic, ok := extractWeekFromText(piece); ok {
				chunk.WeekNumber = &week
				if chunk.Topic == "" {
					chunk.Topic = topic
				}
			}
		}

		chunks = append(chunks, chunk)
	}

	return chunks
}
