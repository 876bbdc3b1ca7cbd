package proto

// FieldValue is one stored field of a user record with its version.
type FieldValue struct {
	Name    string // 1
	Value   string // 2
	Version int64  // 3
}

func (m *FieldValue) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Name)
	b = appendString(b, 2, m.Value)
	b = appendInt64(b, 3, m.Version)
	return b, nil
}

func (m *FieldValue) UnmarshalWire(b []byte) error {
	*m = FieldValue{}
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Name, err = f.asString()
		case 2:
			m.Value, err = f.asString()
		case 3:
			m.Version, err = f.asInt64()
		}
		return err
	})
}

// UserRecord is the authoritative record of one user.
type UserRecord struct {
	UserId string        // 1
	Fields []*FieldValue // 2, repeated
}

func (m *UserRecord) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.UserId)
	for _, fv := range m.Fields {
		var err error
		if b, err = appendMessage(b, 2, fv); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *UserRecord) UnmarshalWire(b []byte) error {
	*m = UserRecord{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			s, err := f.asString()
			m.UserId = s
			return err
		case 2:
			raw, err := f.asBytes()
			if err != nil {
				return err
			}
			fv := &FieldValue{}
			if err := fv.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Fields = append(m.Fields, fv)
		}
		return nil
	})
}

type GetUserRecordRequest struct {
	UserId string // 1
}

func (m *GetUserRecordRequest) MarshalWire() ([]byte, error) {
	return appendString(nil, 1, m.UserId), nil
}

func (m *GetUserRecordRequest) UnmarshalWire(b []byte) error {
	*m = GetUserRecordRequest{}
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.UserId, err = f.asString()
		}
		return err
	})
}

type GetUserRecordResponse struct {
	Found  bool        // 1
	Record *UserRecord // 2
}

func (m *GetUserRecordResponse) MarshalWire() ([]byte, error) {
	b := appendBool(nil, 1, m.Found)
	if m.Record != nil {
		return appendMessage(b, 2, m.Record)
	}
	return b, nil
}

func (m *GetUserRecordResponse) UnmarshalWire(b []byte) error {
	*m = GetUserRecordResponse{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := f.asBool()
			m.Found = v
			return err
		case 2:
			raw, err := f.asBytes()
			if err != nil {
				return err
			}
			m.Record = &UserRecord{}
			return m.Record.UnmarshalWire(raw)
		}
		return nil
	})
}

type SetFieldRequest struct {
	UserId  string // 1
	Field   string // 2
	Value   string // 3
	Version int64  // 4
}

func (m *SetFieldRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.UserId)
	b = appendString(b, 2, m.Field)
	b = appendString(b, 3, m.Value)
	b = appendInt64(b, 4, m.Version)
	return b, nil
}

func (m *SetFieldRequest) UnmarshalWire(b []byte) error {
	*m = SetFieldRequest{}
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.UserId, err = f.asString()
		case 2:
			m.Field, err = f.asString()
		case 3:
			m.Value, err = f.asString()
		case 4:
			m.Version, err = f.asInt64()
		}
		return err
	})
}

type SetFieldResponse struct {
	Applied       bool  // 1
	StoredVersion int64 // 2
}

func (m *SetFieldResponse) MarshalWire() ([]byte, error) {
	b := appendBool(nil, 1, m.Applied)
	return appendInt64(b, 2, m.StoredVersion), nil
}

func (m *SetFieldResponse) UnmarshalWire(b []byte) error {
	*m = SetFieldResponse{}
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Applied, err = f.asBool()
		case 2:
			m.StoredVersion, err = f.asInt64()
		}
		return err
	})
}

type DeleteUserRecordRequest struct {
	UserId string // 1
}

func (m *DeleteUserRecordRequest) MarshalWire() ([]byte, error) {
	return appendString(nil, 1, m.UserId), nil
}

func (m *DeleteUserRecordRequest) UnmarshalWire(b []byte) error {
	*m = DeleteUserRecordRequest{}
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.UserId, err = f.asString()
		}
		return err
	})
}

type DeleteUserRecordResponse struct {
	Existed bool // 1
}

func (m *DeleteUserRecordResponse) MarshalWire() ([]byte, error) {
	return appendBool(nil, 1, m.Existed), nil
}

func (m *DeleteUserRecordResponse) UnmarshalWire(b []byte) error {
	*m = DeleteUserRecordResponse{}
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.Existed, err = f.asBool()
		}
		return err
	})
}

type PingRequest struct{}

func (m *PingRequest) MarshalWire() ([]byte, error) { return nil, nil }

func (m *PingRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(field) error { return nil })
}

type PingResponse struct {
	Status string // 1
}

func (m *PingResponse) MarshalWire() ([]byte, error) {
	return appendString(nil, 1, m.Status), nil
}

func (m *PingResponse) UnmarshalWire(b []byte) error {
	*m = PingResponse{}
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.Status, err = f.asString()
		}
		return err
	})
}
