package record

// Status is the lifecycle state of a bridge transaction record.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusError     Status = "error"
	StatusProcessed Status = "processed"
	StatusFinalized Status = "finalized"
)

// Statuses lists every status the store knows about.
func Statuses() []Status {
	return []Status{StatusInitiated, StatusError, StatusProcessed, StatusFinalized}
}

// Record is the value stored under a transaction key.
// The fields besides Status are opaque to the store.
type Record struct {
	From   string `json:"from" msgpack:"from"`
	To     string `json:"to" msgpack:"to"`
	Origin string `json:"origin" msgpack:"origin"`
	Target string `json:"target" msgpack:"target"`
	Tx     string `json:"tx" msgpack:"tx"`
	Status Status `json:"status" msgpack:"status"`
	Amount string `json:"amount" msgpack:"amount"`
}

// KeyList is the response shape of key enumerations.
type KeyList struct {
	ID []string `json:"id"`
}

// TxList is the response shape of record enumerations.
type TxList struct {
	Txs []*Record `json:"txs"`
}

func NewKeyList() *KeyList {
	return &KeyList{ID: []string{}}
}

func NewTxList() *TxList {
	return &TxList{Txs: []*Record{}}
}
