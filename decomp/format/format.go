package format

import (
	"github.com/nikandfor/hacked/hfmt"
)

type (
	// Lines is an ordered list of output text lines.
	Lines struct {
		l []string
	}
)

const indent = "    "

// Indent appends d nesting levels.
func Indent(b []byte, d int) []byte {
	for ; d > 0; d-- {
		b = append(b, indent...)
	}

	return b
}

// App appends formatted text indented by d levels.
func App(b []byte, d int, f string, args ...any) []byte {
	b = Indent(b, d)

	if len(args) == 0 {
		return append(b, f...)
	}

	return hfmt.Appendf(b, f, args...)
}

func (l *Lines) Add(b []byte) {
	l.l = append(l.l, string(b))
}

func (l *Lines) Addf(d int, f string, args ...any) {
	l.Add(App(nil, d, f, args...))
}

func (l *Lines) Len() int { return len(l.l) }

func (l *Lines) Line(i int) string { return l.l[i] }

func (l *Lines) Strings() []string { return l.l }

func (l *Lines) Reset() { l.l = l.l[:0] }

// AddLines appends all lines of x.
func (l *Lines) AddLines(x *Lines) {
	l.l = append(l.l, x.l...)
}

// Filter drops lines for which keep returns false.
func (l *Lines) Filter(keep func(s string) bool) (removed int) {
	j := 0

	for _, s := range l.l {
		if keep(s) {
			l.l[j] = s
			j++
		}
	}

	removed = len(l.l) - j
	l.l = l.l[:j]

	return removed
}

// AppendText appends lines each terminated by a newline.
func (l *Lines) AppendText(b []byte) []byte {
	for _, s := range l.l {
		b = append(b, s...)
		b = append(b, '\n')
	}

	return b
}

func (l *Lines) String() string {
	return string(l.AppendText(nil))
}
