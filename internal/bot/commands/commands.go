package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auctiond/internal/auction"
)

// Engine is the auction engine surface the commands drive.
type Engine interface {
	CreateAuction(ctx context.Context, p auction.CreateAuctionParams) error
	CancelAuction(ctx context.Context, caller auction.AccountID, id auction.NFTID) error
	EndAuction(ctx context.Context, caller auction.AccountID, id auction.NFTID) error
	AddBid(ctx context.Context, bidder auction.AccountID, id auction.NFTID, amount auction.Balance) error
	RemoveBid(ctx context.Context, bidder auction.AccountID, id auction.NFTID) error
	BuyItNow(ctx context.Context, buyer auction.AccountID, id auction.NFTID) error
	Claim(ctx context.Context, account auction.AccountID) (auction.Balance, error)
	CurrentBlock() auction.BlockNumber
}

// Wallet reads and mints account balances.
type Wallet interface {
	Balance(ctx context.Context, account string) (uint64, error)
	Deposit(ctx context.Context, account string, amount uint64, reason string) error
}

// Caller identifies who invoked a command. The Discord user ID is the
// account ID.
type Caller struct {
	ID    string
	Roles []string
}

// Options are the command options keyed by name.
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

func (o Options) uint32Value(name string) (uint32, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	v := opt.IntValue()
	if v < 0 || v > int64(^uint32(0)) {
		return 0, false
	}
	return uint32(v), true
}

func (o Options) uint64Value(name string) (uint64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	v := opt.IntValue()
	if v < 0 {
		return 0, false
	}
	return uint64(v), true
}

// Handlers process Discord interactions.
type Handlers struct {
	engine      Engine
	wallet      Wallet
	adminRoleID string
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewHandlers creates new command handlers. Members holding adminRoleID may
// mint funds with /deposit; an empty adminRoleID disables it.
func NewHandlers(engine Engine, wallet Wallet, adminRoleID string, logger *slog.Logger, tp trace.TracerProvider) *Handlers {
	return &Handlers{
		engine:      engine,
		wallet:      wallet,
		adminRoleID: adminRoleID,
		logger:      logger,
		tracer:      tp.Tracer("github.com/jensholdgaard/auctiond/internal/bot/commands"),
	}
}

func nftOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "nft",
		Description: description,
		Required:    true,
		MinValue:    new(float64),
	}
}

// SlashCommands returns the slash command definitions.
func SlashCommands() []*discordgo.ApplicationCommand {
	zero := float64(0)
	one := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:        "auction-create",
			Description: "Auction an NFT you own",
			Options: []*discordgo.ApplicationCommandOption{
				nftOption("NFT to auction"),
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "marketplace", Description: "Marketplace to list on", Required: true, MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "start", Description: "Block bidding opens at", Required: true, MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "end", Description: "Block the auction closes at", Required: true, MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "start-price", Description: "Bids must exceed this price", Required: true, MinValue: &zero},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "buy-it-price", Description: "Instant purchase price", Required: false, MinValue: &one},
			},
		},
		{
			Name:        "auction-cancel",
			Description: "Cancel an auction that has not started",
			Options:     []*discordgo.ApplicationCommandOption{nftOption("NFT whose auction to cancel")},
		},
		{
			Name:        "auction-end",
			Description: "End an extended auction early",
			Options:     []*discordgo.ApplicationCommandOption{nftOption("NFT whose auction to end")},
		},
		{
			Name:        "bid",
			Description: "Bid on an auction",
			Options: []*discordgo.ApplicationCommandOption{
				nftOption("NFT to bid on"),
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Bid amount", Required: true, MinValue: &one},
			},
		},
		{
			Name:        "bid-remove",
			Description: "Withdraw your bid from an auction",
			Options:     []*discordgo.ApplicationCommandOption{nftOption("NFT whose bid to remove")},
		},
		{
			Name:        "buy-it-now",
			Description: "Buy an NFT at its buy it now price",
			Options:     []*discordgo.ApplicationCommandOption{nftOption("NFT to buy")},
		},
		{
			Name:        "claim",
			Description: "Claim your refunded bids",
		},
		{
			Name:        "balance",
			Description: "Check your balance",
		},
		{
			Name:        "deposit",
			Description: "Mint funds into an account (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "player", Description: "Account to credit", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Amount to mint", Required: true, MinValue: &one},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the deposit", Required: false},
			},
		},
	}
}

// InteractionCreate handles incoming slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	opts := make(Options, len(data.Options))
	for _, o := range data.Options {
		opts[o.Name] = o
	}

	var caller Caller
	switch {
	case i.Member != nil && i.Member.User != nil:
		caller = Caller{ID: i.Member.User.ID, Roles: i.Member.Roles}
	case i.User != nil:
		caller = Caller{ID: i.User.ID}
	}

	respond(s, i, h.Execute(context.Background(), data.Name, caller, opts))
}

// Execute runs one command and returns the reply text.
func (h *Handlers) Execute(ctx context.Context, name string, caller Caller, opts Options) string {
	ctx, span := h.tracer.Start(ctx, "InteractionCreate",
		trace.WithAttributes(
			attribute.String("command", name),
			attribute.String("caller", caller.ID),
		),
	)
	defer span.End()

	if caller.ID == "" {
		return "Could not identify you."
	}

	var (
		msg string
		err error
	)
	switch name {
	case "auction-create":
		msg, err = h.handleAuctionCreate(ctx, caller, opts)
	case "auction-cancel":
		msg, err = withNFT(opts, func(id uint32) (string, error) {
			if err := h.engine.CancelAuction(ctx, caller.ID, id); err != nil {
				return "Failed to cancel auction", err
			}
			return fmt.Sprintf("Auction for NFT `%d` cancelled.", id), nil
		})
	case "auction-end":
		msg, err = withNFT(opts, func(id uint32) (string, error) {
			if err := h.engine.EndAuction(ctx, caller.ID, id); err != nil {
				return "Failed to end auction", err
			}
			return fmt.Sprintf("Auction for NFT `%d` ended.", id), nil
		})
	case "bid":
		msg, err = h.handleBid(ctx, caller, opts)
	case "bid-remove":
		msg, err = withNFT(opts, func(id uint32) (string, error) {
			if err := h.engine.RemoveBid(ctx, caller.ID, id); err != nil {
				return "Failed to remove bid", err
			}
			return fmt.Sprintf("Your bid on NFT `%d` was removed and refunded.", id), nil
		})
	case "buy-it-now":
		msg, err = withNFT(opts, func(id uint32) (string, error) {
			if err := h.engine.BuyItNow(ctx, caller.ID, id); err != nil {
				return "Purchase failed", err
			}
			return fmt.Sprintf("You bought NFT `%d`.", id), nil
		})
	case "claim":
		msg, err = h.handleClaim(ctx, caller)
	case "balance":
		msg, err = h.handleBalance(ctx, caller)
	case "deposit":
		msg, err = h.handleDeposit(ctx, caller, opts)
	default:
		return "Unknown command"
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.DebugContext(ctx, "command rejected",
			slog.String("command", name),
			slog.String("caller", caller.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Sprintf("%s: %s", msg, err)
	}
	return msg
}

func withNFT(opts Options, fn func(id uint32) (string, error)) (string, error) {
	id, ok := opts.uint32Value("nft")
	if !ok {
		return "Invalid NFT", errors.New("nft must be a non-negative 32-bit number")
	}
	return fn(id)
}

func (h *Handlers) handleAuctionCreate(ctx context.Context, caller Caller, opts Options) (string, error) {
	p := auction.CreateAuctionParams{Creator: caller.ID}
	var ok [5]bool
	p.NFTID, ok[0] = opts.uint32Value("nft")
	p.MarketplaceID, ok[1] = opts.uint32Value("marketplace")
	p.StartBlock, ok[2] = opts.uint32Value("start")
	p.EndBlock, ok[3] = opts.uint32Value("end")
	p.StartPrice, ok[4] = opts.uint64Value("start-price")
	if slices.Contains(ok[:], false) {
		return "Invalid auction terms", errors.New("nft, marketplace, start, end and start-price are required non-negative numbers")
	}
	if price, set := opts.uint64Value("buy-it-price"); set {
		p.BuyItPrice = &price
	}

	if err := h.engine.CreateAuction(ctx, p); err != nil {
		return "Failed to create auction", err
	}

	msg := fmt.Sprintf("Auction created for NFT `%d` on marketplace `%d`: blocks %d to %d, start price %d",
		p.NFTID, p.MarketplaceID, p.StartBlock, p.EndBlock, p.StartPrice)
	if p.BuyItPrice != nil {
		msg += fmt.Sprintf(", buy it now %d", *p.BuyItPrice)
	}
	return msg + fmt.Sprintf(" (current block %d).", h.engine.CurrentBlock()), nil
}

func (h *Handlers) handleBid(ctx context.Context, caller Caller, opts Options) (string, error) {
	id, okID := opts.uint32Value("nft")
	amount, okAmount := opts.uint64Value("amount")
	if !okID || !okAmount {
		return "Invalid bid", errors.New("nft and amount must be non-negative numbers")
	}
	if err := h.engine.AddBid(ctx, caller.ID, id, amount); err != nil {
		return "Bid failed", err
	}
	return fmt.Sprintf("Bid of **%d** placed on NFT `%d`.", amount, id), nil
}

func (h *Handlers) handleClaim(ctx context.Context, caller Caller) (string, error) {
	amount, err := h.engine.Claim(ctx, caller.ID)
	if errors.Is(err, auction.ErrClaimDoesNotExist) {
		return "You have nothing to claim.", nil
	}
	if err != nil {
		return "Claim failed", err
	}
	return fmt.Sprintf("Claimed **%d**.", amount), nil
}

func (h *Handlers) handleBalance(ctx context.Context, caller Caller) (string, error) {
	b, err := h.wallet.Balance(ctx, caller.ID)
	if err != nil {
		return "Could not read balance", err
	}
	return fmt.Sprintf("Balance: **%d**", b), nil
}

func (h *Handlers) handleDeposit(ctx context.Context, caller Caller, opts Options) (string, error) {
	if h.adminRoleID == "" || !slices.Contains(caller.Roles, h.adminRoleID) {
		return "Only admins can deposit.", nil
	}
	target, ok := opts["player"]
	amount, okAmount := opts.uint64Value("amount")
	if !ok || !okAmount || amount == 0 {
		return "Invalid deposit", errors.New("player and a positive amount are required")
	}
	account := target.UserValue(nil).ID
	reason := "admin deposit"
	if r, ok := opts["reason"]; ok && strings.TrimSpace(r.StringValue()) != "" {
		reason = r.StringValue()
	}

	if err := h.wallet.Deposit(ctx, account, amount, reason); err != nil {
		return "Deposit failed", err
	}
	return fmt.Sprintf("Deposited **%d** to <@%s> for: %s", amount, account, reason), nil
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
}
