package notifier

import (
	"fmt"
	"strings"
	"time"

	"MarketBell/internal/model"
)

// HelpText lists the supported bot commands.
const HelpText = "可用命令:\n• /status 当前市场状态\n• /schedule 今日交易时段\n• /refresh 重新获取交易日历"

func statusIcon(tag model.StatusTag) string {
	switch tag {
	case model.StatusTrading:
		return "🟢"
	case model.StatusPreMarket:
		return "🟡"
	case model.StatusClosed:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatStatusChange formats a published status change.
func FormatStatusChange(st model.MarketStatus, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n", statusIcon(st.Status), st.StatusText, at.Format("2006-01-02 15:04")))
	if !st.IsTradeDay {
		if st.HolidayName != "" {
			b.WriteString(fmt.Sprintf("今日非交易日（%s）\n", st.HolidayName))
		} else {
			b.WriteString("今日非交易日\n")
		}
	}
	return b.String()
}

// FormatStatus formats the /status reply. next is the upcoming period
// boundary; it is omitted when hasNext is false.
func FormatStatus(snap model.Snapshot, next time.Time, hasNext bool) string {
	if snap.Status == nil {
		return "⏳ 交易日历尚未获取，请稍后再试"
	}
	st := snap.Status
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>市场状态</b>: %s\n", statusIcon(st.Status), st.StatusText))
	b.WriteString(fmt.Sprintf("交易日: %v\n", st.IsTradeDay))
	if st.HolidayName != "" {
		b.WriteString(fmt.Sprintf("节假日: %s\n", st.HolidayName))
	}
	if hasNext {
		b.WriteString(fmt.Sprintf("下次变化: %s\n", next.Format("15:04")))
	}
	return b.String()
}

// FormatSchedule formats the day's trading periods.
func FormatSchedule(sched *model.TradingSchedule) string {
	if sched == nil {
		return "⏳ 交易日历尚未获取，请稍后再试"
	}
	var b strings.Builder
	b.WriteString("📅 <b>今日交易时段</b>\n\n")
	if !sched.IsTradeDay {
		name := sched.HolidayName
		if name == "" {
			name = "非交易日"
		}
		b.WriteString(fmt.Sprintf("今日休市: %s\n", name))
		return b.String()
	}
	if len(sched.Periods) == 0 {
		b.WriteString("无交易时段\n")
		return b.String()
	}
	for _, p := range sched.Periods {
		b.WriteString(fmt.Sprintf("%s %s-%s %s\n", statusIcon(p.Status), p.StartTime, p.EndTime, p.Text))
	}
	return b.String()
}
