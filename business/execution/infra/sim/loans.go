package sim

import (
	"context"
	"sync"

	"github.com/google/uuid"

	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
)

// LoanProvider is a paper flash-loan pool with unlimited liquidity. It
// tracks outstanding principal so a repayment below principal plus fee is
// rejected the way an on-chain pool would revert it.
type LoanProvider struct {
	logger logger.LoggerInterface

	mu    sync.Mutex
	loans map[string]fixedpoint.Value // loan id -> amount owed
}

// NewLoanProvider creates a simulated flash-loan provider.
func NewLoanProvider(log logger.LoggerInterface) *LoanProvider {
	return &LoanProvider{
		logger: log,
		loans:  make(map[string]fixedpoint.Value),
	}
}

// Request issues a loan and returns its identifier.
func (p *LoanProvider) Request(ctx context.Context, asset marketDomain.Asset, amount fixedpoint.Value, feeBps int64) (string, error) {
	if amount.Sign() <= 0 {
		return "", apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContext("loan amount must be positive"))
	}
	if feeBps < 0 {
		return "", apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContextf("negative fee %d bps", feeBps))
	}

	id := uuid.NewString()
	owed := amount.Add(amount.MulBps(feeBps))

	p.mu.Lock()
	p.loans[id] = owed
	p.mu.Unlock()

	p.logger.Debug(ctx, "simulated flash loan issued",
		"loan_id", id,
		"asset", asset.String(),
		"amount", amount.String(),
		"fee_bps", feeBps,
	)
	return id, nil
}

// Repay settles a loan. The full principal plus fee must come back.
func (p *LoanProvider) Repay(ctx context.Context, loanID string, amount fixedpoint.Value) error {
	p.mu.Lock()
	owed, ok := p.loans[loanID]
	if ok && amount.Cmp(owed) >= 0 {
		delete(p.loans, loanID)
	}
	p.mu.Unlock()

	if !ok {
		return apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContextf("unknown loan %s", loanID))
	}
	if amount.Cmp(owed) < 0 {
		return apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContextf("repayment %s below owed %s", amount, owed))
	}

	p.logger.Debug(ctx, "simulated flash loan repaid", "loan_id", loanID, "amount", amount.String())
	return nil
}

// Outstanding returns the number of unrepaid loans.
func (p *LoanProvider) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loans)
}
