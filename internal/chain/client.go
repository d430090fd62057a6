// Package chain mirrors marketplace events onto the hiring smart
// contract. Mirroring is best-effort: the database is authoritative and
// callers log chain failures instead of propagating them.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Minimal ABI for the hiring contract, matching the deployed interface.
const contractABI = `[
  {"type":"function","name":"createResume","stateMutability":"nonpayable","inputs":[{"name":"ipfsHash","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"createTask","stateMutability":"nonpayable","inputs":[{"name":"title","type":"string"},{"name":"rewardWei","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"bidOnTask","stateMutability":"nonpayable","inputs":[{"name":"taskId","type":"uint256"},{"name":"amountWei","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"awardTask","stateMutability":"nonpayable","inputs":[{"name":"taskId","type":"uint256"},{"name":"winner","type":"address"}],"outputs":[]},
  {"type":"function","name":"submitDeliverable","stateMutability":"nonpayable","inputs":[{"name":"taskId","type":"uint256"},{"name":"ipfsHash","type":"string"}],"outputs":[]},
  {"type":"function","name":"completeTask","stateMutability":"nonpayable","inputs":[{"name":"taskId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"taskCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Client wraps the contract with a server-side signer.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	signer   *bind.TransactOpts
}

// Dial connects to the RPC endpoint and binds the hiring contract. Any of
// the three parameters being empty disables mirroring (nil client).
func Dial(ctx context.Context, rpcURL, contractAddr, signerKeyHex string) (*Client, error) {
	if rpcURL == "" || contractAddr == "" || signerKeyHex == "" {
		return nil, nil
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing rpc: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(signerKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing signer key: %w", err)
	}
	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("building transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parsing contract abi: %w", err)
	}

	contract := bind.NewBoundContract(common.HexToAddress(contractAddr), parsed, eth, eth, eth)
	return &Client{eth: eth, contract: contract, signer: signer}, nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (string, error) {
	opts := *c.signer
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, method, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	return tx.Hash().Hex(), nil
}

// RegisterResume anchors a resume hash on chain and returns the tx hash.
func (c *Client) RegisterResume(ctx context.Context, ipfsHash string) (string, error) {
	return c.transact(ctx, "createResume", ipfsHash)
}

// CreateTask mirrors a new task, returning the tx hash and the contract's
// task counter after the call. The counter read is a separate view call;
// under concurrent mirrors it can drift, which is acceptable for a
// best-effort mirror.
func (c *Client) CreateTask(ctx context.Context, title string, rewardWei *big.Int) (txHash string, taskID int64, err error) {
	txHash, err = c.transact(ctx, "createTask", title, rewardWei)
	if err != nil {
		return "", 0, err
	}

	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "taskCount"); err != nil {
		return txHash, 0, fmt.Errorf("taskCount: %w", err)
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return txHash, 0, fmt.Errorf("taskCount: unexpected result type %T", out[0])
	}
	return txHash, count.Int64(), nil
}

// BidOnTask mirrors a bid.
func (c *Client) BidOnTask(ctx context.Context, taskID int64, amountWei *big.Int) (string, error) {
	return c.transact(ctx, "bidOnTask", big.NewInt(taskID), amountWei)
}

// AwardTask mirrors an award to the winner's wallet.
func (c *Client) AwardTask(ctx context.Context, taskID int64, winnerAddr string) (string, error) {
	return c.transact(ctx, "awardTask", big.NewInt(taskID), common.HexToAddress(winnerAddr))
}

// SubmitDeliverable anchors a deliverable hash against a mirrored task.
func (c *Client) SubmitDeliverable(ctx context.Context, taskID int64, ipfsHash string) (string, error) {
	return c.transact(ctx, "submitDeliverable", big.NewInt(taskID), ipfsHash)
}

// CompleteTask mirrors task completion.
func (c *Client) CompleteTask(ctx context.Context, taskID int64) (string, error) {
	return c.transact(ctx, "completeTask", big.NewInt(taskID))
}
