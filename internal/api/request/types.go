package request

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	WhitePublicKey string `json:"whitePublicKey"`
}

// JoinSessionRequest is the request body for joining a session as black
type JoinSessionRequest struct {
	BlackPublicKey string `json:"blackPublicKey"`
}

// MoveRequest is the request body for submitting a signed move.
// Signature is a hex DER ECDSA signature over "{sessionId}|{move}".
type MoveRequest struct {
	Move      string `json:"move"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}
