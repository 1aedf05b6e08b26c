package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zintix-labs/huaylab/bet"
	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/session"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Format 報表輸出格式。
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat 空字串視為 table。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", errs.Warnf("unknown format %q (table|json|yaml)", s)
	}
}

// Tabular 能印成文字表格的報表（BillReport、Slip）。
type Tabular interface {
	WriteTable(w io.Writer) error
}

// Write 依格式輸出報表；有 Done() 的報表先收尾。
func Write(w io.Writer, f Format, v any) error {
	if d, ok := v.(interface{ Done() }); ok {
		d.Done()
	}
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(v)
	case FormatYAML:
		return writeYAML(w, v)
	case FormatTable, "":
		t, ok := v.(Tabular)
		if !ok {
			return errs.Warnf("%T has no table layout", v)
		}
		return t.WriteTable(w)
	}
	return errs.Warnf("unknown format %q", f)
}

func (s *BillReport) WriteTable(w io.Writer) error {
	return RenderBill(w, s)
}

// ============================================================
// ** Slip：單張注單 **
// ============================================================

// SlipLine 注單上的一行：輸入文字、展開筆數、該行金額。
type SlipLine struct {
	Text    string `json:"text" yaml:"text"`
	Entries int    `json:"entries" yaml:"entries"`
	Amount  int    `json:"amount" yaml:"amount"`
}

// Slip 單張注單的逐行明細，Totals 與面板上顯示的合計同一格式。
type Slip struct {
	Title  string         `json:"title" yaml:"title"`
	Lines  []SlipLine     `json:"lines" yaml:"lines"`
	Totals session.Totals `json:"totals" yaml:"totals"`
}

// NewSlip 依 EntryID 把展開後的注單還原成一行一列（保持原順序）。
func NewSlip(title string, es []bet.Entry) *Slip {
	s := &Slip{Title: title}
	idx := make(map[string]int)
	for _, e := range es {
		i, ok := idx[e.EntryID]
		if !ok || e.EntryID == "" {
			i = len(s.Lines)
			idx[e.EntryID] = i
			s.Lines = append(s.Lines, SlipLine{Text: e.DisplayText, Amount: e.DisplayAmount})
		}
		s.Lines[i].Entries++
		s.Totals.Entries++
	}
	s.Totals.Lines = len(s.Lines)
	for _, l := range s.Lines {
		s.Totals.Amount += l.Amount
	}
	return s
}

// NewBillSlip 送出的單據 -> Slip，標題用 BillNote。
func NewBillSlip(b session.Bill) *Slip {
	return NewSlip(b.BillNote, b.Entries)
}

func (s *Slip) WriteTable(w io.Writer) error {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Lines)+3)
	msg := make(map[string]string, len(s.Lines)+3)
	for i, l := range s.Lines {
		k := fmt.Sprintf("%d. %s", i+1, l.Text)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%d)", l.Amount, l.Entries)
	}
	for _, kv := range [][2]string{
		{"Lines", p.Sprintf("%d", s.Totals.Lines)},
		{"Entries", p.Sprintf("%d", s.Totals.Entries)},
		{"Total", p.Sprintf("%d", s.Totals.Amount)},
	} {
		keys = append(keys, kv[0])
		msg[kv[0]] = kv[1]
	}
	_, err := io.WriteString(w, fmtTable(s.Title, keys, msg))
	return err
}

// ============================================================
// ** YAML **
// ============================================================

// writeYAML 外層維度展開，最內層一維陣列寫成 [a, b, c]。
func writeYAML(w io.Writer, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return err
	}
	flowLeafSequences(&node)
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// flowLeafSequences 只有純量元素的 sequence 改成 flow style；元素是 mapping 的（例如 Slip.Lines）維持展開。
func flowLeafSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	leaf := true
	for _, c := range n.Content {
		flowLeafSequences(c)
		if c.Kind != yaml.ScalarNode {
			leaf = false
		}
	}
	if n.Kind == yaml.SequenceNode && leaf {
		n.Style = yaml.FlowStyle
	}
}
