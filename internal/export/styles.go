package export

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/xuri/excelize/v2"
)

const moneyFormat = "#,##0.00"

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}

func defaultStyle() *excelize.Style {
	return &excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFFFFF"},
			Pattern: 1,
		},
	}
}

func moneyStyle() *excelize.Style {
	f := moneyFormat
	return &excelize.Style{
		CustomNumFmt: &f,
	}
}

func fontBold() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	}
}

func textAlignment(a string) *excelize.Style {
	return &excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: a,
		},
	}
}

func thinBorder(where ...string) *excelize.Style {
	s := &excelize.Style{}
	for _, w := range where {
		s.Border = append(s.Border, excelize.Border{
			Type:  w,
			Color: "#000000",
			Style: 1,
		})
	}
	return s
}

func negativeRed() *excelize.Style {
	f := moneyFormat + ";[Red]-" + moneyFormat
	return &excelize.Style{
		CustomNumFmt: &f,
	}
}

func mergeStyles(ext ...*excelize.Style) *excelize.Style {
	if len(ext) == 0 {
		return nil
	}
	for _, e := range ext[1:] {
		_ = mergo.Merge(ext[0], e, mergo.WithOverride)
	}
	return ext[0]
}

// styles caches the style ids of one workbook.
type styles struct {
	header int
	label  int
	money  int
	total  int
}

func newStyles(xlsx *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	if s.header, err = xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), thinBorder("bottom"))); err != nil {
		return s, err
	}
	if s.label, err = xlsx.NewStyle(mergeStyles(defaultStyle(), textAlignment("left"))); err != nil {
		return s, err
	}
	if s.money, err = xlsx.NewStyle(mergeStyles(defaultStyle(), moneyStyle())); err != nil {
		return s, err
	}
	if s.total, err = xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), negativeRed(), thinBorder("top"))); err != nil {
		return s, err
	}
	return s, nil
}
