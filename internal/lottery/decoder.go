package lottery

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"lotteryScope/internal/model"
	"lotteryScope/internal/token"
)

// defaultExpDecimals is the EXP reward token precision.
const defaultExpDecimals = 18

// Decoder turns raw pot contract logs into typed events. Decoding happens
// once, at the ingestion boundary; everything downstream works on the typed
// variants.
type Decoder struct {
	potABI      abi.ABI
	registry    *token.Registry
	expDecimals uint8
}

// NewDecoder builds a decoder bound to a token registry.
func NewDecoder(registry *token.Registry, expDecimals uint8) (*Decoder, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	parsed, err := PotABI()
	if err != nil {
		return nil, fmt.Errorf("parse pot abi: %w", err)
	}
	if expDecimals == 0 {
		expDecimals = defaultExpDecimals
	}
	return &Decoder{potABI: parsed, registry: registry, expDecimals: expDecimals}, nil
}

// Topic0 returns the event signature hash for a stream.
func (d *Decoder) Topic0(stream model.Stream) common.Hash {
	switch stream {
	case model.StreamDeposit:
		return d.potABI.Events["TokenDeposited"].ID
	case model.StreamWithdraw:
		return d.potABI.Events["TokenWithdrawn"].ID
	case model.StreamPlay:
		return d.potABI.Events["PlayFulfilled"].ID
	default:
		return common.Hash{}
	}
}

// DecodeDeposit decodes a TokenDeposited log.
func (d *Decoder) DecodeDeposit(log types.Log, blockTimestamp uint64) (model.DepositEvent, error) {
	values, err := d.potABI.Events["TokenDeposited"].Inputs.Unpack(log.Data)
	if err != nil {
		return model.DepositEvent{}, fmt.Errorf("unpack TokenDeposited: %w", err)
	}
	if len(values) != 4 {
		return model.DepositEvent{}, fmt.Errorf("TokenDeposited: unexpected arity %d", len(values))
	}

	tokenAddr, err := asAddress(values[0])
	if err != nil {
		return model.DepositEvent{}, fmt.Errorf("TokenDeposited tokenAddress: %w", err)
	}
	tokenAmount, err := asBigInt(values[1])
	if err != nil {
		return model.DepositEvent{}, fmt.Errorf("TokenDeposited tokenAmount: %w", err)
	}
	lpAmount, err := asBigInt(values[2])
	if err != nil {
		return model.DepositEvent{}, fmt.Errorf("TokenDeposited lpAmount: %w", err)
	}
	user, err := asAddress(values[3])
	if err != nil {
		return model.DepositEvent{}, fmt.Errorf("TokenDeposited user: %w", err)
	}

	meta, ok := d.registry.ByAddress(tokenAddr.Hex())
	if !ok {
		return model.DepositEvent{}, fmt.Errorf("unknown deposit token %s", tokenAddr.Hex())
	}

	return model.DepositEvent{
		EventBase:      eventBase(log, blockTimestamp),
		User:           lowerHex(user),
		TokenAddress:   tokenAddr.Hex(),
		TokenSymbol:    meta.Symbol,
		RawTokenAmount: rawString(tokenAmount),
		TokenAmount:    formatUnits(tokenAmount, meta.Decimals),
		RawLpAmount:    rawString(lpAmount),
		LpAmount:       formatUnits(lpAmount, meta.LpDecimals),
	}, nil
}

// DecodeWithdraw decodes a TokenWithdrawn log. Note the contract emits lpAmount
// before tokenAmount, the opposite of TokenDeposited.
func (d *Decoder) DecodeWithdraw(log types.Log, blockTimestamp uint64) (model.WithdrawEvent, error) {
	values, err := d.potABI.Events["TokenWithdrawn"].Inputs.Unpack(log.Data)
	if err != nil {
		return model.WithdrawEvent{}, fmt.Errorf("unpack TokenWithdrawn: %w", err)
	}
	if len(values) != 4 {
		return model.WithdrawEvent{}, fmt.Errorf("TokenWithdrawn: unexpected arity %d", len(values))
	}

	tokenAddr, err := asAddress(values[0])
	if err != nil {
		return model.WithdrawEvent{}, fmt.Errorf("TokenWithdrawn tokenAddress: %w", err)
	}
	lpAmount, err := asBigInt(values[1])
	if err != nil {
		return model.WithdrawEvent{}, fmt.Errorf("TokenWithdrawn lpAmount: %w", err)
	}
	tokenAmount, err := asBigInt(values[2])
	if err != nil {
		return model.WithdrawEvent{}, fmt.Errorf("TokenWithdrawn tokenAmount: %w", err)
	}
	user, err := asAddress(values[3])
	if err != nil {
		return model.WithdrawEvent{}, fmt.Errorf("TokenWithdrawn user: %w", err)
	}

	meta, ok := d.registry.ByAddress(tokenAddr.Hex())
	if !ok {
		return model.WithdrawEvent{}, fmt.Errorf("unknown withdraw token %s", tokenAddr.Hex())
	}

	return model.WithdrawEvent{
		EventBase:      eventBase(log, blockTimestamp),
		User:           lowerHex(user),
		TokenAddress:   tokenAddr.Hex(),
		TokenSymbol:    meta.Symbol,
		RawTokenAmount: rawString(tokenAmount),
		TokenAmount:    formatUnits(tokenAmount, meta.Decimals),
		RawLpAmount:    rawString(lpAmount),
		LpAmount:       formatUnits(lpAmount, meta.LpDecimals),
	}, nil
}

// playStatus mirrors the PlayFulfilled tuple layout.
type playStatus struct {
	Fulfilled         bool
	Id                *big.Int
	BlockNumber       *big.Int
	Player            common.Address
	InputToken        common.Address
	InputAmount       *big.Int
	Repeats           *big.Int
	OutputToken       common.Address
	TableId           *big.Int
	RequestId         *big.Int
	RandomWord        *big.Int
	OutcomeLevels     []*big.Int
	OutputTotalAmount *big.Int
	OutputXexpAmount  *big.Int
}

// DecodePlay decodes a PlayFulfilled log.
func (d *Decoder) DecodePlay(log types.Log, blockTimestamp uint64) (model.PlayEvent, error) {
	values, err := d.potABI.Events["PlayFulfilled"].Inputs.Unpack(log.Data)
	if err != nil {
		return model.PlayEvent{}, fmt.Errorf("unpack PlayFulfilled: %w", err)
	}
	if len(values) != 1 {
		return model.PlayEvent{}, fmt.Errorf("PlayFulfilled: unexpected arity %d", len(values))
	}

	status, ok := abi.ConvertType(values[0], new(playStatus)).(*playStatus)
	if !ok {
		return model.PlayEvent{}, fmt.Errorf("PlayFulfilled: unexpected tuple type %T", values[0])
	}

	inputMeta, ok := d.registry.ByAddress(status.InputToken.Hex())
	if !ok {
		return model.PlayEvent{}, fmt.Errorf("unknown play input token %s", status.InputToken.Hex())
	}
	outputMeta, ok := d.registry.ByAddress(status.OutputToken.Hex())
	if !ok {
		return model.PlayEvent{}, fmt.Errorf("unknown play output token %s", status.OutputToken.Hex())
	}

	levels := make([]uint64, 0, len(status.OutcomeLevels))
	for _, level := range status.OutcomeLevels {
		levels = append(levels, level.Uint64())
	}

	return model.PlayEvent{
		EventBase:         eventBase(log, blockTimestamp),
		Player:            lowerHex(status.Player),
		Fulfilled:         status.Fulfilled,
		PlayID:            rawString(status.Id),
		RequestID:         rawString(status.RequestId),
		InputToken:        status.InputToken.Hex(),
		RawInputAmount:    rawString(status.InputAmount),
		InputAmount:       formatUnits(status.InputAmount, inputMeta.Decimals),
		OutputToken:       status.OutputToken.Hex(),
		Repeats:           status.Repeats.Uint64(),
		TableID:           status.TableId.Uint64(),
		RandomWord:        rawString(status.RandomWord),
		OutcomeLevels:     levels,
		RawOutputAmount:   rawString(status.OutputTotalAmount),
		OutputTotalAmount: formatUnits(status.OutputTotalAmount, outputMeta.Decimals),
		OutputExpAmount:   formatUnits(status.OutputXexpAmount, d.expDecimals),
	}, nil
}

func eventBase(log types.Log, blockTimestamp uint64) model.EventBase {
	return model.EventBase{
		BlockNumber:    log.BlockNumber,
		BlockTimestamp: blockTimestamp,
		BlockHash:      log.BlockHash.Hex(),
		TxHash:         log.TxHash.Hex(),
		TxIndex:        uint64(log.TxIndex),
		LogIndex:       uint64(log.Index),
	}
}

func lowerHex(addr common.Address) string {
	return "0x" + common.Bytes2Hex(addr.Bytes())
}

func asAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("expected address, got %T", value)
	}
	return addr, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	n, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected uint256, got %T", value)
	}
	return n, nil
}
