package commands

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// Economy is the slice of the engine the dispatcher drives.
type Economy interface {
	BuyEggs(caller models.Address, quantity uint64, paid *big.Int) (uint64, error)
	CreateAnt(caller models.Address) (models.AntID, error)
	CreateEgg(caller models.Address, id models.AntID) (models.LayResult, error)
	SellAnt(caller models.Address, id models.AntID) (*big.Int, error)
	TransferAnt(caller, to models.Address, id models.AntID) error
	EggBalance(owner models.Address) uint64
	AntBalance(owner models.Address) int
}

// Wallets reports currency balances.
type Wallets interface {
	BalanceOf(owner models.Address) *big.Int
}

// Dispatcher executes parsed text commands against the economy.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender models.Address) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	economy Economy
	wallets Wallets
	logger  *zap.Logger
}

// NewService constructs a command dispatcher. wallets is optional.
func NewService(economy Economy, wallets Wallets, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		economy: economy,
		wallets: wallets,
		logger:  logger,
	}
}

// HandleCommand runs the command for sender and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender models.Address) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", string(sender)), zap.Any("args", cmd.Args))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch cmd.Type {
	case models.CommandBuy:
		if len(cmd.Args) < 2 {
			return "", ErrInvalidArguments
		}
		quantity, err := parseUint(cmd.Args[0])
		if err != nil {
			return "", err
		}
		paid, err := currency.ParseWei(cmd.Args[1])
		if err != nil {
			return "", ErrInvalidArguments
		}
		bought, err := s.economy.BuyEggs(sender, quantity, paid)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Bought %d eggs for %s ETH. You now hold %d eggs.", bought, currency.FormatEther(paid), s.economy.EggBalance(sender)), nil
	case models.CommandMint:
		id, err := s.economy.CreateAnt(sender)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Ant #%d hatched. %d eggs left.", id, s.economy.EggBalance(sender)), nil
	case models.CommandLay:
		id, err := s.antArg(cmd, 0)
		if err != nil {
			return "", err
		}
		res, err := s.economy.CreateEgg(sender, id)
		if err != nil {
			return "", err
		}
		message := fmt.Sprintf("Ant #%d laid %d eggs.", id, res.EggsLaid)
		if res.Died {
			message += " It died in the process."
		}
		return message, nil
	case models.CommandSell:
		id, err := s.antArg(cmd, 0)
		if err != nil {
			return "", err
		}
		payout, err := s.economy.SellAnt(sender, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Ant #%d sold for %s ETH.", id, currency.FormatEther(payout)), nil
	case models.CommandTransfer:
		if len(cmd.Args) < 2 {
			return "", ErrInvalidArguments
		}
		id, err := s.antArg(cmd, 0)
		if err != nil {
			return "", err
		}
		to := models.NormalizeAddress(cmd.Args[1])
		if err := s.economy.TransferAnt(sender, to, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("Ant #%d transferred to %s.", id, to), nil
	case models.CommandBalance:
		message := fmt.Sprintf("%d eggs, %d ants.", s.economy.EggBalance(sender), s.economy.AntBalance(sender))
		if s.wallets != nil {
			message += fmt.Sprintf(" Wallet %s ETH.", currency.FormatEther(s.wallets.BalanceOf(sender)))
		}
		return message, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) antArg(cmd models.Command, idx int) (models.AntID, error) {
	if len(cmd.Args) <= idx {
		return 0, ErrInvalidArguments
	}
	v, err := parseUint(cmd.Args[idx])
	if err != nil || v == 0 {
		return 0, ErrInvalidArguments
	}
	return models.AntID(v), nil
}

func parseUint(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidArguments
	}
	return v, nil
}
