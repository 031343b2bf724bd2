package protocol

import "time"

// NewDetectIntentMessage creates a detect_intent request.
func NewDetectIntentMessage(sessionID, language string, sampleRate int) (*Message, error) {
	return NewMessage(TypeDetectIntent, DetectIntentRequest{
		SessionID:  sessionID,
		Language:   language,
		SampleRate: sampleRate,
	})
}

// NewRecognitionMessage creates a transcript update.
func NewRecognitionMessage(transcript string, final bool) (*Message, error) {
	return NewMessage(TypeRecognition, RecognitionData{Transcript: transcript, IsFinal: final})
}

// NewQueryResultMessage creates a query result.
func NewQueryResultMessage(result QueryResultData) (*Message, error) {
	return NewMessage(TypeQueryResult, result)
}

// NewErrorMessage creates an error message.
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// GetRecognitionData extracts a transcript update.
func (m *Message) GetRecognitionData() (*RecognitionData, error) {
	var data RecognitionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetQueryResultData extracts a query result.
func (m *Message) GetQueryResultData() (*QueryResultData, error) {
	var data QueryResultData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts an error.
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
