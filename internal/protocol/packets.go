package protocol

// Input mask bits (spec §6). Bits 5-7 are reserved and must be zero; a
// sender setting them is not an error worth dropping the packet over, the
// bits are just ignored by the simulation.
const (
	InputUp    uint8 = 1 << 0
	InputDown  uint8 = 1 << 1
	InputLeft  uint8 = 1 << 2
	InputRight uint8 = 1 << 3
	InputFire  uint8 = 1 << 4
)

// ClientInputPayload is the CLIENT_INPUT packet body (0x02).
type ClientInputPayload struct {
	PlayerID    uint8
	InputMask   uint8
	ChargeLevel uint8
	InputSeq    uint32
}

func (p ClientInputPayload) Encode(w *Writer) {
	w.U8(p.PlayerID)
	w.U8(p.InputMask)
	w.U8(p.ChargeLevel)
	w.U32(p.InputSeq)
}

func DecodeClientInput(r *Reader) (ClientInputPayload, error) {
	var p ClientInputPayload
	var err error
	if p.PlayerID, err = r.U8(); err != nil {
		return p, err
	}
	if p.InputMask, err = r.U8(); err != nil {
		return p, err
	}
	if p.ChargeLevel, err = r.U8(); err != nil {
		return p, err
	}
	if p.InputSeq, err = r.U32(); err != nil {
		return p, err
	}
	return p, nil
}

// ServerWelcomePayload is SERVER_WELCOME (0x10).
type ServerWelcomePayload struct {
	AssignedPlayerID uint8
}

func (p ServerWelcomePayload) Encode(w *Writer) { w.U8(p.AssignedPlayerID) }

func DecodeServerWelcome(r *Reader) (ServerWelcomePayload, error) {
	v, err := r.U8()
	return ServerWelcomePayload{AssignedPlayerID: v}, err
}

// SnapshotHeader precedes the ack list and entity list in ENTITY_UPDATE.
type SnapshotHeader struct {
	EntityCount    uint32
	SnapshotSeq    uint32
	PlayerAckCount uint32
}

func (h SnapshotHeader) Encode(w *Writer) {
	w.U32(h.EntityCount)
	w.U32(h.SnapshotSeq)
	w.U32(h.PlayerAckCount)
}

func DecodeSnapshotHeader(r *Reader) (SnapshotHeader, error) {
	var h SnapshotHeader
	var err error
	if h.EntityCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.SnapshotSeq, err = r.U32(); err != nil {
		return h, err
	}
	if h.PlayerAckCount, err = r.U32(); err != nil {
		return h, err
	}
	return h, nil
}

// PlayerInputAck piggybacks each room member's lastProcessedInputSeq onto a
// snapshot (spec §4.G).
type PlayerInputAck struct {
	PlayerID              uint8
	LastProcessedInputSeq uint32
}

func (a PlayerInputAck) Encode(w *Writer) {
	w.U8(a.PlayerID)
	w.U32(a.LastProcessedInputSeq)
}

func DecodePlayerInputAck(r *Reader) (PlayerInputAck, error) {
	var a PlayerInputAck
	var err error
	if a.PlayerID, err = r.U8(); err != nil {
		return a, err
	}
	if a.LastProcessedInputSeq, err = r.U32(); err != nil {
		return a, err
	}
	return a, nil
}

// EntityDestroyPayload is ENTITY_DESTROY (0x13).
type EntityDestroyPayload struct {
	EntityID uint32
}

func (p EntityDestroyPayload) Encode(w *Writer) { w.U32(p.EntityID) }

func DecodeEntityDestroy(r *Reader) (EntityDestroyPayload, error) {
	v, err := r.U32()
	return EntityDestroyPayload{EntityID: v}, err
}

// ServerPingReplyPayload is SERVER_PING_REPLY (0x15).
type ServerPingReplyPayload struct {
	EchoedTimestamp uint32
}

func (p ServerPingReplyPayload) Encode(w *Writer) { w.U32(p.EchoedTimestamp) }

func DecodeServerPingReply(r *Reader) (ServerPingReplyPayload, error) {
	v, err := r.U32()
	return ServerPingReplyPayload{EchoedTimestamp: v}, err
}

// RoomListEntry is one element of ROOM_LIST_RES.
type RoomListEntry struct {
	ID         uint32
	Name       string
	CurPlayers uint8
	MaxPlayers uint8
	InGame     bool
}

func (e RoomListEntry) Encode(w *Writer) {
	w.U32(e.ID)
	w.LPString(e.Name)
	w.U8(e.CurPlayers)
	w.U8(e.MaxPlayers)
	w.Bool(e.InGame)
}

func DecodeRoomListEntry(r *Reader) (RoomListEntry, error) {
	var e RoomListEntry
	var err error
	if e.ID, err = r.U32(); err != nil {
		return e, err
	}
	if e.Name, err = r.LPString(); err != nil {
		return e, err
	}
	if e.CurPlayers, err = r.U8(); err != nil {
		return e, err
	}
	if e.MaxPlayers, err = r.U8(); err != nil {
		return e, err
	}
	if e.InGame, err = r.Bool(); err != nil {
		return e, err
	}
	return e, nil
}

// RoomListResPayload is ROOM_LIST_RES (0x41).
type RoomListResPayload struct {
	Rooms []RoomListEntry
}

func (p RoomListResPayload) Encode(w *Writer) {
	w.U32(uint32(len(p.Rooms)))
	for _, e := range p.Rooms {
		e.Encode(w)
	}
}

func DecodeRoomListRes(r *Reader) (RoomListResPayload, error) {
	count, err := r.U32()
	if err != nil {
		return RoomListResPayload{}, err
	}
	rooms := make([]RoomListEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := DecodeRoomListEntry(r)
		if err != nil {
			return RoomListResPayload{}, err
		}
		rooms = append(rooms, e)
	}
	return RoomListResPayload{Rooms: rooms}, nil
}

// RoomCreatePayload is ROOM_CREATE (0x20).
type RoomCreatePayload struct {
	Name       string
	MaxPlayers uint8
}

func (p RoomCreatePayload) Encode(w *Writer) {
	w.LPString(p.Name)
	w.U8(p.MaxPlayers)
}

func DecodeRoomCreate(r *Reader) (RoomCreatePayload, error) {
	var p RoomCreatePayload
	var err error
	if p.Name, err = r.LPString(); err != nil {
		return p, err
	}
	if p.MaxPlayers, err = r.U8(); err != nil {
		return p, err
	}
	return p, nil
}

// RoomCreatedPayload is ROOM_CREATED (0x32).
type RoomCreatedPayload struct {
	RoomID uint32
}

func (p RoomCreatedPayload) Encode(w *Writer) { w.U32(p.RoomID) }

func DecodeRoomCreated(r *Reader) (RoomCreatedPayload, error) {
	v, err := r.U32()
	return RoomCreatedPayload{RoomID: v}, err
}

// RoomJoinPayload is ROOM_JOIN (0x21).
type RoomJoinPayload struct {
	RoomID uint32
}

func (p RoomJoinPayload) Encode(w *Writer) { w.U32(p.RoomID) }

func DecodeRoomJoin(r *Reader) (RoomJoinPayload, error) {
	v, err := r.U32()
	return RoomJoinPayload{RoomID: v}, err
}

// RoomJoinedPayload is ROOM_JOINED (0x30).
type RoomJoinedPayload struct {
	RoomID       uint32
	Name         string
	MaxPlayers   uint8
	HostPlayerID uint32
}

func (p RoomJoinedPayload) Encode(w *Writer) {
	w.U32(p.RoomID)
	w.LPString(p.Name)
	w.U8(p.MaxPlayers)
	w.U32(p.HostPlayerID)
}

func DecodeRoomJoined(r *Reader) (RoomJoinedPayload, error) {
	var p RoomJoinedPayload
	var err error
	if p.RoomID, err = r.U32(); err != nil {
		return p, err
	}
	if p.Name, err = r.LPString(); err != nil {
		return p, err
	}
	if p.MaxPlayers, err = r.U8(); err != nil {
		return p, err
	}
	if p.HostPlayerID, err = r.U32(); err != nil {
		return p, err
	}
	return p, nil
}

// RoomUpdateEntry is one member's row in ROOM_UPDATE.
type RoomUpdateEntry struct {
	ID      uint32
	Name    string
	IsHost  bool
	IsReady bool
}

func (e RoomUpdateEntry) Encode(w *Writer) {
	w.U32(e.ID)
	w.LPString(e.Name)
	w.Bool(e.IsHost)
	w.Bool(e.IsReady)
}

func DecodeRoomUpdateEntry(r *Reader) (RoomUpdateEntry, error) {
	var e RoomUpdateEntry
	var err error
	if e.ID, err = r.U32(); err != nil {
		return e, err
	}
	if e.Name, err = r.LPString(); err != nil {
		return e, err
	}
	if e.IsHost, err = r.Bool(); err != nil {
		return e, err
	}
	if e.IsReady, err = r.Bool(); err != nil {
		return e, err
	}
	return e, nil
}

// RoomUpdatePayload is ROOM_UPDATE (0x31).
type RoomUpdatePayload struct {
	RoomID  uint32
	Players []RoomUpdateEntry
}

func (p RoomUpdatePayload) Encode(w *Writer) {
	w.U32(p.RoomID)
	w.U32(uint32(len(p.Players)))
	for _, e := range p.Players {
		e.Encode(w)
	}
}

func DecodeRoomUpdate(r *Reader) (RoomUpdatePayload, error) {
	var p RoomUpdatePayload
	var err error
	if p.RoomID, err = r.U32(); err != nil {
		return p, err
	}
	count, err := r.U32()
	if err != nil {
		return p, err
	}
	p.Players = make([]RoomUpdateEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := DecodeRoomUpdateEntry(r)
		if err != nil {
			return p, err
		}
		p.Players = append(p.Players, e)
	}
	return p, nil
}

// RoomLeavePayload is ROOM_LEAVE (0x33), used both directions.
type RoomLeavePayload struct {
	RoomID uint32
}

func (p RoomLeavePayload) Encode(w *Writer) { w.U32(p.RoomID) }

func DecodeRoomLeave(r *Reader) (RoomLeavePayload, error) {
	v, err := r.U32()
	return RoomLeavePayload{RoomID: v}, err
}

// PlayerReadyPayload is PLAYER_READY (0x34).
type PlayerReadyPayload struct {
	Ready bool
}

func (p PlayerReadyPayload) Encode(w *Writer) { w.Bool(p.Ready) }

func DecodePlayerReady(r *Reader) (PlayerReadyPayload, error) {
	v, err := r.Bool()
	return PlayerReadyPayload{Ready: v}, err
}

// GameStartPayload is GAME_START (0x23), used both directions.
type GameStartPayload struct {
	RoomID uint32
}

func (p GameStartPayload) Encode(w *Writer) { w.U32(p.RoomID) }

func DecodeGameStart(r *Reader) (GameStartPayload, error) {
	v, err := r.U32()
	return GameStartPayload{RoomID: v}, err
}

// ChatMessagePayload is CHAT_MESSAGE (0x50), used both directions.
type ChatMessagePayload struct {
	SenderID   uint32
	SenderName string
	Message    string
	RoomID     uint32
}

func (p ChatMessagePayload) Encode(w *Writer) {
	w.U32(p.SenderID)
	w.LPString(p.SenderName)
	w.LPString(p.Message)
	w.U32(p.RoomID)
}

func DecodeChatMessage(r *Reader) (ChatMessagePayload, error) {
	var p ChatMessagePayload
	var err error
	if p.SenderID, err = r.U32(); err != nil {
		return p, err
	}
	if p.SenderName, err = r.LPString(); err != nil {
		return p, err
	}
	if p.Message, err = r.LPString(); err != nil {
		return p, err
	}
	if p.RoomID, err = r.U32(); err != nil {
		return p, err
	}
	return p, nil
}

// LevelChangePayload is LEVEL_CHANGE (0x60).
type LevelChangePayload struct {
	LevelID uint8
}

func (p LevelChangePayload) Encode(w *Writer) { w.U8(p.LevelID) }

func DecodeLevelChange(r *Reader) (LevelChangePayload, error) {
	v, err := r.U8()
	return LevelChangePayload{LevelID: v}, err
}

// GameOverPayload is GAME_OVER (0x61).
type GameOverPayload struct {
	TotalScore uint32
}

func (p GameOverPayload) Encode(w *Writer) { w.U32(p.TotalScore) }

func DecodeGameOver(r *Reader) (GameOverPayload, error) {
	v, err := r.U32()
	return GameOverPayload{TotalScore: v}, err
}

// GameVictoryPayload is GAME_VICTORY (0x62).
type GameVictoryPayload struct {
	TotalScore uint32
}

func (p GameVictoryPayload) Encode(w *Writer) { w.U32(p.TotalScore) }

func DecodeGameVictory(r *Reader) (GameVictoryPayload, error) {
	v, err := r.U32()
	return GameVictoryPayload{TotalScore: v}, err
}
