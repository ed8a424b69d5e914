package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/metrics"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/notify"
	"github.com/drksurvraze/orderbot/internal/ordererr"
	"github.com/drksurvraze/orderbot/internal/platform"
	"github.com/drksurvraze/orderbot/internal/store"
)

const gatingDeleteDelay = 5 * time.Second

// OrderLifecycle is the slice of the lifecycle controller the router needs.
type OrderLifecycle interface {
	Approve(ctx context.Context, cmd models.CommandContext, orderID string) (string, error)
	Reject(ctx context.Context, cmd models.CommandContext, orderID string) (string, error)
	Dismiss(ctx context.Context, cmd models.CommandContext, orderID string) (string, error)
	Cleanup(ctx context.Context, cmd models.CommandContext, orderID string) (string, error)
}

// LatencyFunc reports the gateway heartbeat latency for the ping command.
type LatencyFunc func() time.Duration

type invocation struct {
	msg  models.InboundMessage
	args []string
}

type commandSpec struct {
	name      string
	minArgs   int
	usage     string
	adminOnly bool
	run       func(ctx context.Context, inv invocation) (string, error)
}

// Router matches administrator text against the command grammar and
// dispatches to the lifecycle controller or the reporting views.
type Router struct {
	prefix          string
	commandChannels map[string]struct{}
	orderChannels   map[string]struct{}

	lifecycle OrderLifecycle
	store     *store.Store
	collector *metrics.Collector
	perms     platform.PermissionChecker
	messenger platform.Messenger
	notifier  *notify.Notifier
	latency   LatencyFunc

	gateDelay time.Duration
	startedAt time.Time
	commands  map[string]commandSpec
}

func NewRouter(prefix string, commandChannels, orderChannels []string, lifecycle OrderLifecycle, st *store.Store, collector *metrics.Collector, perms platform.PermissionChecker, messenger platform.Messenger, notifier *notify.Notifier, latency LatencyFunc) *Router {
	r := &Router{
		prefix:          prefix,
		commandChannels: toSet(commandChannels),
		orderChannels:   toSet(orderChannels),
		lifecycle:       lifecycle,
		store:           st,
		collector:       collector,
		perms:           perms,
		messenger:       messenger,
		notifier:        notifier,
		latency:         latency,
		gateDelay:       gatingDeleteDelay,
		startedAt:       time.Now(),
	}
	r.commands = r.buildCommands()
	return r
}

func (r *Router) buildCommands() map[string]commandSpec {
	specs := []commandSpec{
		{"approved", 1, "❌ Usage: `" + r.prefix + "approved <order_id>`", true, r.cmdApprove},
		{"rejected", 1, "❌ Usage: `" + r.prefix + "rejected <order_id>`", true, r.cmdReject},
		{"dismiss", 1, "❌ Usage: `" + r.prefix + "dismiss <order_id>`", true, r.cmdDismiss},
		{"cleanup", 1, "❌ Usage: `" + r.prefix + "cleanup <order_id>`", true, r.cmdCleanup},
		{"orders", 0, "", true, r.cmdOrders},
		{"allorders", 0, "", true, r.cmdAllOrders},
		{"channelorders", 1, "❌ Usage: `" + r.prefix + "channelorders <channel>`", true, r.cmdChannelOrders},
		{"channels", 0, "", true, r.cmdChannels},
		{"stats", 0, "", true, r.cmdStats},
		{"ping", 0, "", false, r.cmdPing},
		{"help", 0, "", false, r.cmdHelp},
		{"channel", 0, "", false, r.cmdChannel},
	}
	out := make(map[string]commandSpec, len(specs))
	for _, s := range specs {
		out[s.name] = s
	}
	return out
}

// HandleMessage dispatches one inbound human message. Non-prefixed input
// is ignored; prefixed input outside a designated command channel gets the
// gating rejection. All command errors are converted to replies here:
// nothing propagates to crash the event loop.
func (r *Router) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	if !strings.HasPrefix(msg.Content, r.prefix) {
		return
	}
	parts := strings.Fields(strings.TrimPrefix(msg.Content, r.prefix))
	if len(parts) == 0 {
		return
	}
	name, args := parts[0], parts[1:]

	// An empty command-channel list designates every channel.
	if len(r.commandChannels) > 0 {
		if _, designated := r.commandChannels[msg.ChannelID]; !designated {
			r.rejectWrongChannel(ctx, msg)
			return
		}
	}

	spec, known := r.commands[name]
	if !known {
		return
	}

	if spec.adminOnly {
		isAdmin, err := r.perms.IsAdministrator(ctx, msg.ChannelID, msg.AuthorID)
		if err != nil {
			logger.Log.Warn("permission check failed", zap.String("user_id", msg.AuthorID), zap.Error(err))
			r.reply(ctx, msg, ordererr.MsgGenericFailure)
			return
		}
		if !isAdmin {
			r.reply(ctx, msg, ordererr.MsgNoPermission)
			return
		}
	}

	if len(args) < spec.minArgs {
		r.reply(ctx, msg, spec.usage)
		return
	}

	reply, err := spec.run(ctx, invocation{msg: msg, args: args})
	if err != nil {
		if uf, ok := err.(ordererr.UserFacing); ok {
			r.reply(ctx, msg, uf.UserMessage())
		} else {
			logger.Log.Error("command failed",
				zap.String("command", name),
				zap.String("user", msg.AuthorTag),
				zap.Error(err))
			r.reply(ctx, msg, ordererr.MsgGenericFailure)
		}
		return
	}
	r.reply(ctx, msg, reply)
}

func (r *Router) rejectWrongChannel(ctx context.Context, msg models.InboundMessage) {
	replyID, err := r.messenger.SendMessage(ctx, msg.ChannelID, ordererr.MsgWrongChannel)
	if err != nil {
		logger.Log.Warn("gating reply failed", zap.Error(err))
		return
	}
	r.notifier.ScheduleDelete(msg.ChannelID, replyID, r.gateDelay)
	r.notifier.ScheduleDelete(msg.ChannelID, msg.MessageID, r.gateDelay)
}

func (r *Router) reply(ctx context.Context, msg models.InboundMessage, content string) {
	if content == "" {
		return
	}
	if _, err := r.messenger.SendMessage(ctx, msg.ChannelID, content); err != nil {
		logger.Log.Warn("reply failed", zap.String("channel_id", msg.ChannelID), zap.Error(err))
	}
}

func (r *Router) commandContext(msg models.InboundMessage) models.CommandContext {
	return models.CommandContext{
		ChannelID:  msg.ChannelID,
		MessageID:  msg.MessageID,
		InvokerID:  msg.AuthorID,
		InvokerTag: msg.AuthorTag,
	}
}

func (r *Router) cmdApprove(ctx context.Context, inv invocation) (string, error) {
	return r.lifecycle.Approve(ctx, r.commandContext(inv.msg), inv.args[0])
}

func (r *Router) cmdReject(ctx context.Context, inv invocation) (string, error) {
	return r.lifecycle.Reject(ctx, r.commandContext(inv.msg), inv.args[0])
}

func (r *Router) cmdDismiss(ctx context.Context, inv invocation) (string, error) {
	return r.lifecycle.Dismiss(ctx, r.commandContext(inv.msg), inv.args[0])
}

func (r *Router) cmdCleanup(ctx context.Context, inv invocation) (string, error) {
	return r.lifecycle.Cleanup(ctx, r.commandContext(inv.msg), inv.args[0])
}

func (r *Router) cmdOrders(ctx context.Context, inv invocation) (string, error) {
	return formatOrders("📦 Pending Orders", r.store.List(inv.msg.ChannelID)), nil
}

func (r *Router) cmdChannelOrders(ctx context.Context, inv invocation) (string, error) {
	channelID := cleanChannelArg(inv.args[0])
	return formatOrders(fmt.Sprintf("📦 Pending Orders for <#%s>", channelID), r.store.List(channelID)), nil
}

func (r *Router) cmdAllOrders(ctx context.Context, inv invocation) (string, error) {
	all := r.store.ListAll()
	if len(all) == 0 {
		return ordererr.MsgNoPendingOrders, nil
	}
	var b strings.Builder
	b.WriteString("📦 **All Pending Orders**\n")
	for _, so := range all {
		fmt.Fprintf(&b, "• **%s** - %s (<#%s>, %s)\n",
			so.Order.OrderID, so.Order.Username, so.Scope, so.Order.CreatedAt.Format("15:04:05"))
	}
	fmt.Fprintf(&b, "Total: %d orders", len(all))
	return b.String(), nil
}

func (r *Router) cmdChannels(ctx context.Context, inv invocation) (string, error) {
	scopes := r.store.Scopes()
	if len(scopes) == 0 {
		return ordererr.MsgNoPendingOrders, nil
	}
	var b strings.Builder
	b.WriteString("📊 **Channels with pending orders**\n")
	for _, scope := range scopes {
		fmt.Fprintf(&b, "• <#%s>: %d orders\n", scope, len(r.store.List(scope)))
	}
	return b.String(), nil
}

func (r *Router) cmdStats(ctx context.Context, inv invocation) (string, error) {
	snap := r.collector.Snapshot()
	uptime := notify.FormatPendingDuration(time.Since(r.startedAt))
	return fmt.Sprintf("📊 **Order Bot Stats**\n"+
		"• Pending: %d\n"+
		"• Received: %d (duplicates dropped: %d, unparseable: %d)\n"+
		"• Approved: %d | Rejected: %d | Dismissed: %d | Cleaned: %d | Expired: %d\n"+
		"• Failed DMs: %d\n"+
		"• Uptime: %s",
		r.store.Len(),
		snap.Received, snap.Duplicates, snap.ExtractionFailures,
		snap.Approved, snap.Rejected, snap.Dismissed, snap.Cleaned, snap.Expired,
		snap.DMFailures,
		uptime), nil
}

func (r *Router) cmdPing(ctx context.Context, inv invocation) (string, error) {
	var latency time.Duration
	if r.latency != nil {
		latency = r.latency()
	} else {
		latency = time.Since(inv.msg.CreatedAt)
	}
	return fmt.Sprintf("🏓 Pong! Latency: %dms", latency.Milliseconds()), nil
}

func (r *Router) cmdHelp(ctx context.Context, inv invocation) (string, error) {
	p := r.prefix
	return "🤖 **Order Bot Help**\n" +
		"• `" + p + "approved <order_id>` - approve an order and DM the purchaser\n" +
		"• `" + p + "rejected <order_id>` - reject an order and DM the purchaser\n" +
		"• `" + p + "dismiss <order_id>` - drop an order without notifying anyone\n" +
		"• `" + p + "cleanup <order_id>` - remove an order and its notification immediately\n" +
		"• `" + p + "orders` - list pending orders in this channel's scope\n" +
		"• `" + p + "allorders` - list pending orders everywhere\n" +
		"• `" + p + "channelorders <channel>` - list pending orders for a channel\n" +
		"• `" + p + "channels` - channels with pending orders\n" +
		"• `" + p + "stats` - processing counters\n" +
		"• `" + p + "ping` - latency check\n" +
		"• `" + p + "channel` - this channel's designation\n" +
		"⚠️ Webhook notifications are deleted 10 seconds after processing.", nil
}

func (r *Router) cmdChannel(ctx context.Context, inv invocation) (string, error) {
	_, isCommand := r.commandChannels[inv.msg.ChannelID]
	_, isOrder := r.orderChannels[inv.msg.ChannelID]
	return fmt.Sprintf("📍 Channel `%s` - command channel: %t, order channel: %t",
		inv.msg.ChannelID, isCommand, isOrder), nil
}

func formatOrders(title string, recs []models.OrderRecord) string {
	if len(recs) == 0 {
		return ordererr.MsgNoPendingOrders
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "• **%s** - %s (%s)\n", rec.OrderID, rec.Username, rec.CreatedAt.Format("15:04:05"))
	}
	fmt.Fprintf(&b, "Total: %d orders", len(recs))
	return b.String()
}

func cleanChannelArg(arg string) string {
	arg = strings.TrimPrefix(arg, "<#")
	return strings.TrimSuffix(arg, ">")
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
