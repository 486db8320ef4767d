package lottery

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event ABI of the lottery pot contract. Only the three persisted streams are
// listed; everything else the contract emits is ignored at the filter level.
const potABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "tokenAddress", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokenAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpAmount", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "TokenDeposited",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "tokenAddress", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "lpAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "tokenAmount", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "user", "type": "address"}
    ],
    "name": "TokenWithdrawn",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {
        "indexed": false,
        "internalType": "struct PlayStatus",
        "name": "status",
        "type": "tuple",
        "components": [
          {"internalType": "bool", "name": "fulfilled", "type": "bool"},
          {"internalType": "uint256", "name": "id", "type": "uint256"},
          {"internalType": "uint256", "name": "blockNumber", "type": "uint256"},
          {"internalType": "address", "name": "player", "type": "address"},
          {"internalType": "address", "name": "inputToken", "type": "address"},
          {"internalType": "uint256", "name": "inputAmount", "type": "uint256"},
          {"internalType": "uint256", "name": "repeats", "type": "uint256"},
          {"internalType": "address", "name": "outputToken", "type": "address"},
          {"internalType": "uint256", "name": "tableId", "type": "uint256"},
          {"internalType": "uint256", "name": "requestId", "type": "uint256"},
          {"internalType": "uint256", "name": "randomWord", "type": "uint256"},
          {"internalType": "uint256[]", "name": "outcomeLevels", "type": "uint256[]"},
          {"internalType": "uint256", "name": "outputTotalAmount", "type": "uint256"},
          {"internalType": "uint256", "name": "outputXexpAmount", "type": "uint256"}
        ]
      }
    ],
    "name": "PlayFulfilled",
    "type": "event"
  }
]`

var (
	potABI     abi.ABI
	potABIOnce sync.Once
	potABIErr  error
)

// PotABI returns the parsed pot contract event ABI.
func PotABI() (abi.ABI, error) {
	potABIOnce.Do(func() {
		potABI, potABIErr = abi.JSON(strings.NewReader(potABIJSON))
	})
	return potABI, potABIErr
}
