package syncbridge

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gowebpki/jcs"
	"go.uber.org/zap"

	"landregistry/internal/platform/config"
)

// EthClient is the subset of ethclient.Client the bridge uses.
type EthClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Ethereum confirms client-side property transactions and anchors document
// digests from the portal's own account.
type Ethereum struct {
	client         EthClient
	key            *ecdsa.PrivateKey
	from           common.Address
	anchor         common.Address
	gasLimit       uint64
	receiptTimeout time.Duration
	newBackOff     func() backoff.BackOff
	logger         *zap.Logger
}

type EthereumOption func(*Ethereum)

// WithAnchorAddress sends anchoring transactions to addr instead of the
// signing account itself.
func WithAnchorAddress(addr string) EthereumOption {
	return func(e *Ethereum) {
		if common.IsHexAddress(addr) {
			e.anchor = common.HexToAddress(addr)
		}
	}
}

func WithGasLimit(limit uint64) EthereumOption {
	return func(e *Ethereum) {
		if limit > 0 {
			e.gasLimit = limit
		}
	}
}

// WithReceiptTimeout bounds how long a receipt is polled for.
func WithReceiptTimeout(d time.Duration) EthereumOption {
	return func(e *Ethereum) {
		if d > 0 {
			e.receiptTimeout = d
		}
	}
}

// WithBackOff replaces the receipt polling schedule. Tests use it to avoid
// sleeping.
func WithBackOff(fn func() backoff.BackOff) EthereumOption {
	return func(e *Ethereum) {
		if fn != nil {
			e.newBackOff = fn
		}
	}
}

func WithEthereumLogger(logger *zap.Logger) EthereumOption {
	return func(e *Ethereum) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEthereum(client EthClient, privateKeyHex string, opts ...EthereumOption) (*Ethereum, error) {
	if client == nil {
		return nil, errors.New("ethereum client is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse ethereum private key: %w", err)
	}
	e := &Ethereum{
		client:         client,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		gasLimit:       60000,
		receiptTimeout: 2 * time.Minute,
		logger:         zap.NewNop(),
	}
	e.anchor = e.from
	for _, opt := range opts {
		opt(e)
	}
	if e.newBackOff == nil {
		timeout := e.receiptTimeout
		e.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = timeout
			return b
		}
	}
	return e, nil
}

// Dial connects to cfg.RPCURL. Callers should fall back to Disabled when the
// URL is empty.
func Dial(ctx context.Context, cfg config.EthereumConfig, logger *zap.Logger) (*Ethereum, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum rpc: %w", err)
	}
	return NewEthereum(client, cfg.PrivateKey,
		WithAnchorAddress(cfg.AnchorAddress),
		WithGasLimit(cfg.GasLimit),
		WithReceiptTimeout(cfg.ReceiptTimeout),
		WithEthereumLogger(logger),
	)
}

// SyncProperty waits for the receipt of a transaction the client already
// submitted and returns its confirmation. A reverted transaction is an error.
func (e *Ethereum) SyncProperty(ctx context.Context, property PropertyDescriptor, txHash string) (*PropertySync, error) {
	if !txHashPattern.MatchString(txHash) {
		return nil, fmt.Errorf("invalid transaction hash %q", txHash)
	}
	if property.BlockchainID == "" {
		return nil, errors.New("property blockchain id is required")
	}
	receipt, err := e.waitReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, err
	}
	return &PropertySync{
		LedgerID: property.BlockchainID,
		Confirmation: Confirmation{
			TransactionHash: strings.ToLower(txHash),
			BlockNumber:     blockNumber(receipt),
			GasUsed:         receipt.GasUsed,
			BlockchainID:    property.BlockchainID,
		},
	}, nil
}

// SyncDocument anchors the keccak digest of the canonical descriptor in a
// zero-value transaction and waits for it to be mined. The digest becomes
// the document's blockchain id.
func (e *Ethereum) SyncDocument(ctx context.Context, document DocumentDescriptor) (*DocumentSync, error) {
	digest, err := DocumentDigest(document)
	if err != nil {
		return nil, err
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	to := e.anchor
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      e.gasLimit,
		GasPrice: gasPrice,
		Data:     digest,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), e.key)
	if err != nil {
		return nil, fmt.Errorf("sign anchor transaction: %w", err)
	}
	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send anchor transaction: %w", err)
	}

	receipt, err := e.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	blockchainID := hexutil.Encode(digest)
	return &DocumentSync{
		BlockchainID: blockchainID,
		TxData: Confirmation{
			TransactionHash: signed.Hash().Hex(),
			BlockNumber:     blockNumber(receipt),
			GasUsed:         receipt.GasUsed,
			BlockchainID:    blockchainID,
		},
	}, nil
}

// DocumentDigest is keccak256 over the JCS form of the descriptor.
func DocumentDigest(document DocumentDescriptor) ([]byte, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("marshal document descriptor: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize document descriptor: %w", err)
	}
	return crypto.Keccak256(canonical), nil
}

func (e *Ethereum) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	operation := func() error {
		r, err := e.client.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return fmt.Errorf("receipt for %s not yet available", hash.Hex())
			}
			return err
		}
		if r.Status != types.ReceiptStatusSuccessful {
			return backoff.Permanent(fmt.Errorf("transaction %s failed on chain", hash.Hex()))
		}
		receipt = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		e.logger.Debug("waiting for transaction receipt",
			zap.String("tx_hash", hash.Hex()),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(e.newBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("confirm transaction %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
