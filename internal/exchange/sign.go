package exchange

import (
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
)

// sign.go - подпись действий /exchange API
//
// Hyperliquid принимает ордера только с EIP-712 подписью API-кошелька:
// 1. action сериализуется в msgpack (порядок полей фиксирован)
// 2. к байтам добавляются nonce (8 байт big-endian) и флаг vault-адреса
// 3. keccak256 от результата становится connectionId "фантомного агента"
// 4. агент Agent{source, connectionId} подписывается как EIP-712 typed data
//    с доменом Exchange/1/chainId=1337/нулевой verifyingContract

// signer подписывает действия приватным ключом API-кошелька
type signer struct {
	key *ecdsa.PrivateKey
}

// newSigner создаёт signer из hex-ключа (с или без префикса 0x)
func newSigner(privateKeyHex string) (*signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid exchange private key: %w", err)
	}
	return &signer{key: key}, nil
}

// address возвращает 0x-адрес API-кошелька
func (s *signer) address() string {
	return strings.ToLower(crypto.PubkeyToAddress(s.key.PublicKey).Hex())
}

// rsvSignature - подпись в формате, который принимает /exchange
type rsvSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V byte   `json:"v"`
}

// actionHash вычисляет keccak256(msgpack(action) || nonce || vault-флаг)
func actionHash(action interface{}, nonce uint64) ([]byte, error) {
	packed, err := msgpack.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to msgpack action: %w", err)
	}

	data := make([]byte, 0, len(packed)+9)
	data = append(data, packed...)

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	data = append(data, nonceBytes[:]...)

	// 0x00 - торгуем от своего аккаунта, без vault-адреса
	data = append(data, 0x00)

	return crypto.Keccak256(data), nil
}

// signAction подписывает action для отправки на /exchange
func (s *signer) signAction(action interface{}, nonce uint64, mainnet bool) (*rsvSignature, error) {
	hash, err := actionHash(action, nonce)
	if err != nil {
		return nil, err
	}

	// source "a" - mainnet, "b" - testnet
	source := "a"
	if !mainnet {
		source = "b"
	}

	sig, err := crypto.Sign(agentDigest(source, hash), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign action: %w", err)
	}

	return &rsvSignature{
		R: "0x" + hex.EncodeToString(sig[:32]),
		S: "0x" + hex.EncodeToString(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

// agentDigest строит EIP-712 digest для типа Agent(string source,bytes32 connectionId)
func agentDigest(source string, connectionID []byte) []byte {
	domainTypeHash := crypto.Keccak256([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	// chainId всегда 1337, verifyingContract - нулевой адрес
	chainID := make([]byte, 32)
	binary.BigEndian.PutUint64(chainID[24:], 1337)
	verifyingContract := make([]byte, 32)

	domainSeparator := crypto.Keccak256(
		domainTypeHash,
		crypto.Keccak256([]byte("Exchange")),
		crypto.Keccak256([]byte("1")),
		chainID,
		verifyingContract,
	)

	agentTypeHash := crypto.Keccak256([]byte("Agent(string source,bytes32 connectionId)"))
	structHash := crypto.Keccak256(
		agentTypeHash,
		crypto.Keccak256([]byte(source)),
		connectionID,
	)

	return crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash)
}
