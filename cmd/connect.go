package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3penalty/internal/chain"
	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/Mohsinsiddi/w3penalty/internal/penalty"
	"github.com/Mohsinsiddi/w3penalty/internal/rpc"
	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/wallet"
)

// connection is everything a contract command needs: the chain, the node
// client, the bound contract and the session driving it.
type connection struct {
	chain    *chain.Chain
	mode     string
	chainID  *big.Int
	rpcURL   string
	client   *ethclient.Client
	contract *penalty.Contract
	sess     *session.Session
	wallet   *wallet.Wallet // nil when no wallet is configured
}

// Close stops receipt polling and closes the node connection.
func (c *connection) Close() {
	c.sess.Close()
	c.client.Close()
}

func (c *connection) readOnly() bool { return !c.contract.CanWrite() }

func (c *connection) txURL(hash string) string { return c.chain.TxURL(c.mode, hash) }

// connect resolves network, contract, endpoint and wallet from flags and
// config, then opens a session. metrics may be nil.
func connect(ctx context.Context, metrics *session.Metrics) (*connection, error) {
	ch, err := chain.NewRegistry().GetByName(cfg.DefaultNetwork)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q: run `w3penalty network list` to see supported networks", cfg.DefaultNetwork)
	}
	conn := &connection{chain: ch, mode: cfg.NetworkMode, chainID: ch.ID(cfg.NetworkMode)}

	addr, err := contractAddress()
	if err != nil {
		return nil, err
	}

	conn.rpcURL, err = pickRPC(ctx, ch, conn.mode, conn.chainID)
	if err != nil {
		return nil, err
	}
	conn.client, err = ethclient.DialContext(ctx, conn.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", conn.rpcURL, err)
	}

	sessOpts := []session.Option{
		session.WithLogger(log),
		session.WithMetrics(metrics),
		session.WithPollInterval(cfg.PollEvery()),
		session.WithConfirmTimeout(cfg.ConfirmWithin()),
	}
	var contractOpts []penalty.Option

	mgr := newWalletManager()
	conn.wallet, err = resolveWallet(mgr)
	if err != nil {
		conn.client.Close()
		return nil, err
	}
	if w := conn.wallet; w != nil {
		sessOpts = append(sessOpts, session.WithAccount(w.Account()))
		if w.CanSign() {
			signer, err := mgr.Signer(w)
			if err != nil {
				conn.client.Close()
				return nil, err
			}
			chainID := conn.chainID
			contractOpts = append(contractOpts, penalty.WithTransactor(func(ctx context.Context) (*bind.TransactOpts, error) {
				return signer.TransactOpts(ctx, chainID)
			}))
		}
	}

	conn.contract, err = penalty.New(addr, conn.client, contractOpts...)
	if err != nil {
		conn.client.Close()
		return nil, err
	}
	conn.sess = session.New(conn.contract, sessOpts...)

	log.Info("connected",
		zap.String("network", ch.NetworkName(conn.mode)),
		zap.String("rpc", conn.rpcURL),
		zap.Stringer("contract", addr),
		zap.Bool("read_only", conn.readOnly()),
	)
	return conn, nil
}

func contractAddress() (common.Address, error) {
	s := contractFlag
	if s == "" {
		s = cfg.Contract
	}
	if s == "" {
		return common.Address{}, errors.New("no penalty contract configured: pass --contract or run `w3penalty config set contract <address>`")
	}
	return session.ParseAddress("contract", s)
}

// resolveWallet returns the --wallet wallet, else the default one. Having no
// wallets at all is not an error: the session is read-only with no account.
func resolveWallet(mgr *wallet.Manager) (*wallet.Wallet, error) {
	name := walletFlag
	if name == "" {
		name = cfg.DefaultWallet
	}
	w, err := mgr.Resolve(name)
	if errors.Is(err, wallet.ErrWalletNotFound) && walletFlag == "" && len(mgr.List()) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// pickRPC returns the pinned endpoint if any, else benchmarks custom and
// built-in endpoints and picks one with the configured algorithm.
func pickRPC(ctx context.Context, ch *chain.Chain, mode string, chainID *big.Int) (string, error) {
	switch {
	case rpcFlag != "":
		return rpcFlag, nil
	case cfg.RPCURL != "":
		return cfg.RPCURL, nil
	}

	urls := append(append([]string(nil), cfg.GetRPCs(ch.Name)...), ch.RPCs(mode)...)
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()

	url, err := rpc.Select(ctx, urls, cfg.RPCAlgorithm, chainID)
	if err != nil {
		return "", fmt.Errorf("selecting RPC for %s: %w", ch.NetworkName(mode), err)
	}
	log.Debug("rpc selected", zap.String("url", url), zap.String("algorithm", cfg.RPCAlgorithm))
	return url, nil
}

// newWalletManager creates a Manager backed by the config-dir JSON store,
// with file-backend keys next to it.
func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyDir(filepath.Join(cfg.Dir(), "keys")),
	)
}
