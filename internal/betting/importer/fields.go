package importer

import (
	"regexp"
	"strconv"
	"strings"
)

type line struct {
	no   int
	text string
	// unclosed marca um registro que terminou com aspas ainda abertas
	unclosed bool
}

func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, l := range raw {
		out = append(out, line{no: i + 1, text: strings.TrimRight(l, "\r")})
	}
	return out
}

func nonBlank(lines []line) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l.text) != "" {
			n++
		}
	}
	return n
}

var (
	extractedMarkers = []string{"Spelbekräftelse", "Vinnande", "Förlorande"}
	confirmationID   = regexp.MustCompile(`[A-Z]{2}\d{10}[A-Z]`)
)

// Detect devolve DialectExtracted se alguma linha tiver termos do extrato
// sueco ou um ID de confirmação; caso contrário DialectStandard.
func Detect(text string) Dialect { return detect(splitLines(text)) }

func detect(lines []line) Dialect {
	for _, l := range lines {
		for _, m := range extractedMarkers {
			if strings.Contains(l.text, m) {
				return DialectExtracted
			}
		}
		if confirmationID.MatchString(l.text) {
			return DialectExtracted
		}
	}
	return DialectStandard
}

// splitFields separa por vírgula fora de aspas. Aspas só alternam o estado e
// não fazem parte do valor; cada campo sai sem espaços nas pontas.
func splitFields(s string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

// recordStart reconhece o começo de uma linha da tabela: "",DD/MM/YYYY
var recordStart = regexp.MustCompile(`^\s*""\s*,\s*\d{2}/\d{2}/\d{4}`)

// joinRecords junta linhas físicas enquanto houver aspas abertas
// (a extração de PDF quebra nomes de eventos longos dentro do campo).
// Uma linha que começa um novo registro encerra o anterior, que sai com unclosed.
func joinRecords(lines []line) []line {
	var (
		out  []line
		cur  strings.Builder
		open bool
		no   int
	)
	for _, l := range lines {
		if open && recordStart.MatchString(l.text) {
			out = append(out, line{no: no, text: cur.String(), unclosed: true})
			open = false
		}
		if !open {
			no = l.no
			cur.Reset()
		} else {
			cur.WriteByte('\n')
		}
		cur.WriteString(l.text)
		if strings.Count(l.text, `"`)%2 == 1 {
			open = !open
		}
		if !open {
			out = append(out, line{no: no, text: cur.String()})
		}
	}
	if open {
		out = append(out, line{no: no, text: cur.String(), unclosed: true})
	}
	return out
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat lê o maior prefixo numérico, ignorando espaços iniciais.
// "2.50 kr" -> 2.5; "abc" -> não ok.
func leadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatNumber imita a forma curta de um número: 250, 12.5, 0.3.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
