package drawer

import (
	"fmt"
	"strings"
	"time"
)

const logSeparator = "======================================="

// ShareText is the post text for one result.
func ShareText(s Settings, r Result) string {
	s = s.withDefaults()
	text := fmt.Sprintf("【%s】お題「%s」を使ってゲーム中！　気になった人はこちら！%s %s", s.AppTitle, r.Text, s.StreamURL, s.Hashtag)
	if r.Memo != "" {
		text += "\nメモ: " + r.Memo
	}
	return text
}

// ShareAll joins the post text of every result with a blank line.
func ShareAll(s Settings, results []Result) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, ShareText(s, r))
	}
	return strings.Join(texts, "\n\n")
}

// LogText renders the downloadable draw log.
func LogText(s Settings, results []Result, at time.Time) string {
	s = s.withDefaults()
	var b strings.Builder
	b.WriteString("お題ゲームメーカー - 抽選ログ\n")
	fmt.Fprintf(&b, "生成日時: %s\n", at.Format("2006/1/2 15:04:05"))
	fmt.Fprintf(&b, "合計お題数: %d\n", len(results))
	b.WriteString(logSeparator + "\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "【お題 %d】\n", i+1)
		b.WriteString(r.Text + "\n")
		if r.Memo != "" {
			b.WriteString("\nメモ・備考:\n" + r.Memo + "\n")
		}
		b.WriteString("\n---\n\n")
	}
	b.WriteString(logSeparator + "\n")
	fmt.Fprintf(&b, "%s - %s\n", s.AppTitle, s.StreamURL)
	b.WriteString(s.Hashtag + "\n")
	return b.String()
}

// LogFileName is the log file name for at, stamped in UTC to the second.
func LogFileName(at time.Time) string {
	return "odai_log_" + at.UTC().Format("2006-01-02T15-04-05") + ".txt"
}
