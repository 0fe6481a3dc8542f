package fileio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var decoders = map[string]*charmap.Charmap{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// detectCharset guesses the encoding from the first bytes. Valid UTF-8 is
// trusted over the detector, which tends to call plain ASCII Latin-1.
func detectCharset(peek []byte) string {
	if len(peek) == 0 || validUTF8Prefix(peek) {
		return "utf-8"
	}
	det, err := chardet.NewTextDetector().DetectBest(peek)
	if err != nil || det == nil {
		return "utf-8"
	}
	return strings.ToLower(det.Charset)
}

// validUTF8Prefix tolerates a rune cut off at the end of the buffer.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// readCSV reads CSV with headerRow (1-based), converting the input to UTF-8.
func readCSV(r io.Reader, headerRow int) (*Table, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	var dec io.Reader = br
	var enc encoding.Encoding
	if cm, ok := decoders[detectCharset(peek)]; ok {
		enc = cm
	}
	if enc != nil {
		dec = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return tableFromRows(rows, headerRow), nil
}
