package presenter

import (
	"html"
	"strings"
)

// attrs 有序属性表，渲染时保持声明顺序
type attrs []struct {
	name  string
	value string
}

// tag 生成单个开标签，空值属性被跳过
func tag(name string, attributes attrs) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for _, a := range attributes {
		if a.value == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(escape(a.value))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	return b.String()
}

func escape(s string) string {
	return html.EscapeString(s)
}
