package segmenter

import (
	"strings"
	"testing"
	"unicode"

	. "github.com/smartystreets/goconvey/convey"
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func regexSegmenter() *Segmenter {
	s := New()
	s.SetSentenceRule(RegexSentences)
	return s
}

func TestSegmenter_Segment(t *testing.T) {
	Convey("Segmenter.Segment 能正确切分文本", t, func() {
		s := regexSegmenter()

		Convey("空内容与空白内容返回空序列", func() {
			So(len(s.Segment("")), ShouldEqual, 0)
			So(len(s.Segment("   ")), ShouldEqual, 0)
			So(len(s.Segment("\n\n \t\n")), ShouldEqual, 0)
		})

		Convey("标题与短段落合并为一块，末块标题不移动", func() {
			chunks := s.Segment("# Title\n\nShort para.")
			So(chunks, ShouldResemble, []string{"# Title\n\nShort para."})
		})

		Convey("多个小段落以空行连接", func() {
			chunks := s.Segment("One.\n\n\nTwo.\n  \nThree.")
			So(chunks, ShouldResemble, []string{"One.\n\nTwo.\n\nThree."})
		})

		Convey("不超过 800 的段落不会被拆分", func() {
			para := strings.Repeat("word ", 139) + "end." // 699
			So(Length(para), ShouldEqual, 699)
			chunks := s.Segment(para + "\n\n" + para)
			So(chunks, ShouldResemble, []string{para, para})
		})

		Convey("超长段落按句子贪心打包", func() {
			sentence := strings.Repeat("a", 99) + ". "
			para := strings.TrimSpace(strings.Repeat(sentence, 10))
			So(Length(para), ShouldEqual, 1009)

			chunks := s.Segment(para)
			So(len(chunks), ShouldEqual, 2)
			So(Length(chunks[0]), ShouldEqual, 706)
			So(Length(chunks[1]), ShouldEqual, 303)
			So(chunks[0]+chunks[1], ShouldEqual, para)
		})

		Convey("无法拆分的超长句单独成块", func() {
			long := strings.Repeat("x", 900)
			chunks := s.Segment("Hi. " + long)
			So(len(chunks), ShouldEqual, 2)
			So(chunks[0], ShouldEqual, "Hi.")
			So(chunks[1], ShouldEqual, " "+long)
		})

		Convey("拆分后的小尾块与下一段落以空行合并", func() {
			para := strings.Repeat("a", 789) + "." + strings.Repeat("b", 19) + "."
			chunks := s.Segment(para + "\n\nTail.")
			So(len(chunks), ShouldEqual, 2)
			So(Length(chunks[0]), ShouldEqual, 790)
			So(chunks[1], ShouldEqual, strings.Repeat("b", 19)+".\n\nTail.")
		})

		Convey("块末尾的标题移动到下一块开头", func() {
			body := strings.Repeat("B", 399) + "."
			chunks := s.Segment("Intro.\n\n## Part\n\n" + body)
			So(chunks, ShouldResemble, []string{"Intro.", "## Part\n\n" + body})
		})

		Convey("仅含标题的块移动后被丢弃", func() {
			a := strings.Repeat("A", 399) + "."
			b := strings.Repeat("B", 399) + "."
			chunks := s.Segment(a + "\n\n## Next\n\n" + b)
			So(chunks, ShouldResemble, []string{a, "## Next\n\n" + b})
		})

		Convey("标题标记后为 Unicode 空白时同样移动", func() {
			a := strings.Repeat("A", 310) + "."
			b := strings.Repeat("B", 310) + "."
			heading := "#\u00a0Heading"
			chunks := s.Segment(a + "\n\n" + heading + "\n\n" + b)
			So(chunks, ShouldResemble, []string{a, heading + "\n\n" + b})

			chunks = s.Segment(a + "\n\n##\u3000见出し\n\n" + b)
			So(len(chunks), ShouldEqual, 2)
			So(chunks[1], ShouldStartWith, "##\u3000见出し\n\n")
		})

		Convey("末块的标题保持原位", func() {
			body := strings.Repeat("C", 399) + "."
			chunks := s.Segment(body + "\n\n# End")
			So(chunks, ShouldResemble, []string{body, "# End"})

			chunks = s.Segment("Body text.\n\n# End")
			So(chunks, ShouldResemble, []string{"Body text.\n\n# End"})
		})
	})
}

func TestSegmenter_Properties(t *testing.T) {
	Convey("分段结果满足不变量", t, func() {
		pieces := []string{
			"# Heading one",
			"Short line.",
			strings.Repeat("Lorem ipsum dolor sit amet. ", 40),
			"```go\nfmt.Println(\"hi\")\n```",
			strings.Repeat("长句没有标点", 200),
			"！？。句首标点。然后继续。",
			"## Sub heading",
			strings.Repeat("Emoji 😀 ok! ", 90),
			"   ",
			"Tail?",
		}
		var inputs []string
		for i := range pieces {
			var b strings.Builder
			for j := 0; j < len(pieces); j++ {
				b.WriteString(pieces[(i+j)%len(pieces)])
				if j%3 == 0 {
					b.WriteString("\n")
				} else {
					b.WriteString("\n\n")
				}
			}
			inputs = append(inputs, b.String())
		}

		for _, rule := range []SentenceRule{RegexSentences, UAX29Sentences} {
			s := New()
			s.SetSentenceRule(rule)
			for _, input := range inputs {
				chunks := s.Segment(input)
				for _, c := range chunks {
					So(strings.TrimSpace(c), ShouldNotBeEmpty)
				}
				So(stripSpace(strings.Join(chunks, "")), ShouldEqual, stripSpace(input))
			}
		}
	})
}

func TestMergeSmall(t *testing.T) {
	Convey("mergeSmall 按段落边界选择连接符", t, func() {
		Convey("同段落内直接拼接", func() {
			merged := mergeSmall([]candidate{
				{text: "a.", endsParagraph: false},
				{text: "b.", endsParagraph: true},
				{text: "c.", endsParagraph: true},
			}, 300)
			So(merged, ShouldResemble, []string{"a.b.\n\nc."})
		})

		Convey("达到下限时开始新块", func() {
			merged := mergeSmall([]candidate{
				{text: "12345", endsParagraph: true},
				{text: "67890", endsParagraph: true},
				{text: "x", endsParagraph: true},
			}, 10)
			So(merged, ShouldResemble, []string{"12345", "67890\n\nx"})
		})

		Convey("连接符长度计入当前长度", func() {
			merged := mergeSmall([]candidate{
				{text: "aaa", endsParagraph: true},
				{text: "bbb", endsParagraph: true},
				{text: "cc", endsParagraph: true},
			}, 10)
			So(merged, ShouldResemble, []string{"aaa\n\nbbb", "cc"})
		})
	})
}

func TestLengthAndOffset(t *testing.T) {
	Convey("长度按 UTF-16 code unit 计算", t, func() {
		So(Length("abc"), ShouldEqual, 3)
		So(Length("中文"), ShouldEqual, 2)
		So(Length("😀"), ShouldEqual, 2)

		off, ok := ByteOffset("a😀b", 1)
		So(ok, ShouldBeTrue)
		So(off, ShouldEqual, 1)

		_, ok = ByteOffset("a😀b", 2)
		So(ok, ShouldBeFalse)

		off, ok = ByteOffset("a😀b", 3)
		So(ok, ShouldBeTrue)
		So(off, ShouldEqual, 5)

		off, ok = ByteOffset("a😀b", 4)
		So(ok, ShouldBeTrue)
		So(off, ShouldEqual, 6)

		_, ok = ByteOffset("ab", 5)
		So(ok, ShouldBeFalse)
	})
}
