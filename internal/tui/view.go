package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"citydesk/internal/appinfo"
	"citydesk/internal/cityapi"
	"citydesk/internal/econ"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

func (m model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("%s — %s", appinfo.Display(), m.opts.City)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("   ")
	if m.view == viewTrade {
		b.WriteString(activeStyle.Render("[交易]"))
		b.WriteString(dimStyle.Render(" 经济"))
	} else {
		b.WriteString(dimStyle.Render("交易 "))
		b.WriteString(activeStyle.Render("[经济]"))
	}
	b.WriteString(dimStyle.Render("   (tab 切换, ctrl+r 刷新, ctrl+e 导出, q 退出)"))
	b.WriteString("\n\n")

	b.WriteString(m.noticeLine())

	if m.view == viewTrade {
		b.WriteString(m.tradeView())
	} else {
		b.WriteString(m.economyView())
	}
	return b.String()
}

func (m model) noticeLine() string {
	if text := m.opts.Notices.Error(); text != "" {
		return errorStyle.Render(text) + "\n\n"
	}
	if text := m.opts.Notices.Success(); text != "" {
		return successStyle.Render(text) + "\n\n"
	}
	return "\n"
}

func (m model) tradeView() string {
	var b strings.Builder
	roster := m.opts.Overview.Agents()

	b.WriteString(sectionStyle.Render("居民资源概览"))
	b.WriteString("\n")
	if len(roster) == 0 {
		b.WriteString(dimStyle.Render("（暂无数据）"))
		b.WriteString("\n")
	}
	for _, a := range roster {
		b.WriteString(formatAgentRow(a))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("转赠资源"))
	b.WriteString("\n")
	b.WriteString(m.formLine(fieldFrom, "发送方", agentNameAt(roster, m.fromIdx)))
	b.WriteString(m.formLine(fieldTo, "接收方", agentNameAt(roster, m.toIdx)))
	b.WriteString(m.formLine(fieldResource, "资源类型", resourceAt(m.opts.Overview.ResourceTypes(), m.resourceIdx)))
	b.WriteString(m.formLine(fieldQuantity, "数量", m.quantity.View()))
	if m.opts.Coordinator.Busy(controlTransfer) {
		b.WriteString(dimStyle.Render("转赠中... " + spinnerFrames[m.spinnerFrame]))
	} else {
		b.WriteString(dimStyle.Render("(enter 转赠)"))
	}
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("转赠历史（实时）"))
	b.WriteString("\n")
	b.WriteString(m.histVP.View())
	return b.String()
}

func (m model) formLine(field formField, label, value string) string {
	marker := "  "
	if m.focus == field {
		marker = cursorStyle.Render("> ")
	}
	return fmt.Sprintf("%s%s %s\n", marker, runewidth.FillRight(label, 10), value)
}

func (m model) historyContent() string {
	entries := m.opts.History.Entries()
	if len(entries) == 0 {
		return dimStyle.Render("暂无转赠记录")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, formatHistoryLine(e))
	}
	return strings.Join(lines, "\n")
}

func (m model) economyView() string {
	var b strings.Builder
	panel := m.opts.Panel

	actorID := panel.Actor()
	actor, ok := m.opts.Overview.Agent(actorID)
	if ok {
		fmt.Fprintf(&b, "当前 Agent：%s (%d 信用点)   %s\n\n", actor.Name, actor.Credits, dimStyle.Render("(a 切换)"))
	} else {
		b.WriteString(dimStyle.Render("请先选择一个 Agent (a 切换)"))
		b.WriteString("\n\n")
	}

	for i, mode := range []econ.Mode{econ.ModeJobs, econ.ModeShop, econ.ModeInventory} {
		label := fmt.Sprintf("%d %s", i+1, mode.Label())
		if panel.Mode() == mode {
			b.WriteString(activeStyle.Render("[" + label + "]"))
		} else {
			b.WriteString(dimStyle.Render(" " + label + " "))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	switch {
	case panel.Loading():
		b.WriteString(dimStyle.Render("加载中... " + spinnerFrames[m.spinnerFrame]))
		b.WriteString("\n")
	case panel.LoadFailed():
		b.WriteString(errorStyle.Render("加载失败"))
		b.WriteString("\n")
	case actorID <= 0:
		b.WriteString(dimStyle.Render("请先选择一个 Agent"))
		b.WriteString("\n")
	default:
		b.WriteString(m.economyList(actor))
	}
	return b.String()
}

func (m model) economyList(actor cityapi.Agent) string {
	var b strings.Builder
	switch m.opts.Panel.Mode() {
	case econ.ModeJobs:
		jobs := m.opts.Panel.Jobs()
		if len(jobs) == 0 {
			return dimStyle.Render("暂无岗位") + "\n"
		}
		for i, job := range jobs {
			b.WriteString(m.cursorMarker(i))
			b.WriteString(formatJobRow(job))
			b.WriteString("\n")
		}
	case econ.ModeShop:
		items := m.opts.Panel.Items()
		if len(items) == 0 {
			return dimStyle.Render("暂无商品") + "\n"
		}
		for i, item := range items {
			b.WriteString(m.cursorMarker(i))
			b.WriteString(formatItemRow(item, econ.CanPurchase(item, actor, true)))
			b.WriteString("\n")
		}
	case econ.ModeInventory:
		owned := m.opts.Panel.Owned()
		if len(owned) == 0 {
			return dimStyle.Render("背包空空如也") + "\n"
		}
		for i, item := range owned {
			b.WriteString(m.cursorMarker(i))
			b.WriteString(formatOwnedRow(item))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m model) cursorMarker(i int) string {
	if i == m.cursor {
		return cursorStyle.Render("> ")
	}
	return "  "
}

func formatAgentRow(a cityapi.Agent) string {
	res := "无资源"
	if len(a.Resources) > 0 {
		parts := make([]string, 0, len(a.Resources))
		for _, r := range a.Resources {
			parts = append(parts, fmt.Sprintf("%s=%d", r.ResourceType, r.Quantity))
		}
		res = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("  %s %s", runewidth.FillRight(a.Name, 12), res)
}

func formatHistoryLine(e econ.TransferRecord) string {
	return fmt.Sprintf("%s  %s → %s: %d %s", e.Time, e.FromName, e.ToName, e.Quantity, e.ResourceType)
}

func formatCapacity(job cityapi.Job) string {
	if job.MaxWorkers == 0 {
		return fmt.Sprintf("%d/∞ 在岗", job.TodayWorkers)
	}
	return fmt.Sprintf("%d/%d 在岗", job.TodayWorkers, job.MaxWorkers)
}

func formatJobRow(job cityapi.Job) string {
	line := fmt.Sprintf("%s  +%d 信用点  %s", runewidth.FillRight(job.Title, 14), job.DailyReward, formatCapacity(job))
	if !econ.CanCheckIn(job) {
		return disabledStyle.Render(line + "  (已满)")
	}
	return line
}

func formatItemRow(item cityapi.ShopItem, canBuy bool) string {
	line := fmt.Sprintf("%s  %d 信用点  %s", runewidth.FillRight(item.Name, 14), item.Price, itemTypeLabel(item.ItemType))
	if !canBuy {
		return disabledStyle.Render(line + "  (信用点不足)")
	}
	return line
}

func formatOwnedRow(item cityapi.OwnedItem) string {
	return fmt.Sprintf("%s  %s  购买于 %s", runewidth.FillRight(item.Name, 14), itemTypeLabel(item.ItemType), item.PurchasedAt)
}

func itemTypeLabel(itemType string) string {
	switch itemType {
	case "avatar_frame":
		return "头像框"
	case "title":
		return "称号"
	case "decoration":
		return "装饰品"
	}
	return itemType
}

func agentNameAt(roster []cityapi.Agent, idx int) string {
	if idx < 0 || idx >= len(roster) {
		return "选择居民"
	}
	return roster[idx].Name
}
