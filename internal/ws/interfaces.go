package ws

type WSClient interface {
	GetSend() chan []byte
	WritePump()
}

type WSHub interface {
	Register(key string, c *Client)
	Unregister(key string, c *Client)
	Push(key string, data []byte) error
}
