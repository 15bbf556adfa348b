package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls AppointmentService over any connection, always with the JSON
// codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func call[Resp any](ctx context.Context, c *Client, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return call[AuthResponse](ctx, c, "Register", in, opts...)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return call[AuthResponse](ctx, c, "Login", in, opts...)
}

func (c *Client) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return call[AuthResponse](ctx, c, "RefreshToken", in, opts...)
}

func (c *Client) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return call[Empty](ctx, c, "Logout", in, opts...)
}

func (c *Client) GetProfile(ctx context.Context, opts ...grpc.CallOption) (*User, error) {
	return call[User](ctx, c, "GetProfile", &Empty{}, opts...)
}

func (c *Client) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*User, error) {
	return call[User](ctx, c, "UpdateProfile", in, opts...)
}

func (c *Client) GetPreferences(ctx context.Context, opts ...grpc.CallOption) (*Preferences, error) {
	return call[Preferences](ctx, c, "GetPreferences", &Empty{}, opts...)
}

func (c *Client) UpdatePreferences(ctx context.Context, in *UpdatePreferencesRequest, opts ...grpc.CallOption) (*Preferences, error) {
	return call[Preferences](ctx, c, "UpdatePreferences", in, opts...)
}

func (c *Client) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return call[ListUsersResponse](ctx, c, "ListUsers", in, opts...)
}

func (c *Client) ListUniversities(ctx context.Context, in *ListUniversitiesRequest, opts ...grpc.CallOption) (*ListUniversitiesResponse, error) {
	return call[ListUniversitiesResponse](ctx, c, "ListUniversities", in, opts...)
}

func (c *Client) GetUniversity(ctx context.Context, id int64, opts ...grpc.CallOption) (*University, error) {
	return call[University](ctx, c, "GetUniversity", &IDRequest{ID: id}, opts...)
}

func (c *Client) CreateUniversity(ctx context.Context, in *University, opts ...grpc.CallOption) (*University, error) {
	return call[University](ctx, c, "CreateUniversity", in, opts...)
}

func (c *Client) UpdateUniversity(ctx context.Context, in *University, opts ...grpc.CallOption) (*University, error) {
	return call[University](ctx, c, "UpdateUniversity", in, opts...)
}

func (c *Client) DeleteUniversity(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	_, err := call[Empty](ctx, c, "DeleteUniversity", &IDRequest{ID: id}, opts...)
	return err
}

func (c *Client) MyUniversity(ctx context.Context, opts ...grpc.CallOption) (*University, error) {
	return call[University](ctx, c, "MyUniversity", &Empty{}, opts...)
}

func (c *Client) ListUniversityStaff(ctx context.Context, id int64, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return call[ListUsersResponse](ctx, c, "ListUniversityStaff", &IDRequest{ID: id}, opts...)
}

func (c *Client) ListThemes(ctx context.Context, opts ...grpc.CallOption) (*ListThemesResponse, error) {
	return call[ListThemesResponse](ctx, c, "ListThemes", &Empty{}, opts...)
}

func (c *Client) CreateTheme(ctx context.Context, in *Theme, opts ...grpc.CallOption) (*Theme, error) {
	return call[Theme](ctx, c, "CreateTheme", in, opts...)
}

func (c *Client) ListAgendas(ctx context.Context, in *ListAgendasRequest, opts ...grpc.CallOption) (*ListAgendasResponse, error) {
	return call[ListAgendasResponse](ctx, c, "ListAgendas", in, opts...)
}

func (c *Client) GetAgenda(ctx context.Context, id int64, opts ...grpc.CallOption) (*Agenda, error) {
	return call[Agenda](ctx, c, "GetAgenda", &IDRequest{ID: id}, opts...)
}

func (c *Client) CreateAgenda(ctx context.Context, in *Agenda, opts ...grpc.CallOption) (*Agenda, error) {
	return call[Agenda](ctx, c, "CreateAgenda", in, opts...)
}

func (c *Client) UpdateAgenda(ctx context.Context, in *UpdateAgendaRequest, opts ...grpc.CallOption) (*Agenda, error) {
	return call[Agenda](ctx, c, "UpdateAgenda", in, opts...)
}

func (c *Client) DeleteAgenda(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	_, err := call[Empty](ctx, c, "DeleteAgenda", &IDRequest{ID: id}, opts...)
	return err
}

func (c *Client) AssignAgendaStaff(ctx context.Context, in *StaffAssignment, opts ...grpc.CallOption) (*StaffAssignment, error) {
	return call[StaffAssignment](ctx, c, "AssignAgendaStaff", in, opts...)
}

func (c *Client) ListSlots(ctx context.Context, in *ListSlotsRequest, opts ...grpc.CallOption) (*ListSlotsResponse, error) {
	return call[ListSlotsResponse](ctx, c, "ListSlots", in, opts...)
}

func (c *Client) GetSlot(ctx context.Context, id int64, opts ...grpc.CallOption) (*Slot, error) {
	return call[Slot](ctx, c, "GetSlot", &IDRequest{ID: id}, opts...)
}

func (c *Client) CreateSlot(ctx context.Context, in *Slot, opts ...grpc.CallOption) (*Slot, error) {
	return call[Slot](ctx, c, "CreateSlot", in, opts...)
}

func (c *Client) UpdateSlot(ctx context.Context, in *UpdateSlotRequest, opts ...grpc.CallOption) (*Slot, error) {
	return call[Slot](ctx, c, "UpdateSlot", in, opts...)
}

func (c *Client) DeleteSlot(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	_, err := call[Empty](ctx, c, "DeleteSlot", &IDRequest{ID: id}, opts...)
	return err
}

func (c *Client) AvailableSlots(ctx context.Context, agendaID int64, opts ...grpc.CallOption) (*ListSlotsResponse, error) {
	return call[ListSlotsResponse](ctx, c, "AvailableSlots", &AvailableSlotsRequest{AgendaID: agendaID}, opts...)
}

func (c *Client) BulkCreateSlots(ctx context.Context, in *BulkCreateSlotsRequest, opts ...grpc.CallOption) (*BulkCreateSlotsResponse, error) {
	return call[BulkCreateSlotsResponse](ctx, c, "BulkCreateSlots", in, opts...)
}

func (c *Client) CheckSlotConflicts(ctx context.Context, in *CheckConflictsRequest, opts ...grpc.CallOption) (*CheckConflictsResponse, error) {
	return call[CheckConflictsResponse](ctx, c, "CheckSlotConflicts", in, opts...)
}

func (c *Client) MonthView(ctx context.Context, in *MonthViewRequest, opts ...grpc.CallOption) (*MonthView, error) {
	return call[MonthView](ctx, c, "MonthView", in, opts...)
}

func (c *Client) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return call[ListAppointmentsResponse](ctx, c, "ListAppointments", in, opts...)
}

func (c *Client) GetAppointment(ctx context.Context, id int64, opts ...grpc.CallOption) (*Appointment, error) {
	return call[Appointment](ctx, c, "GetAppointment", &IDRequest{ID: id}, opts...)
}

func (c *Client) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return call[Appointment](ctx, c, "BookAppointment", in, opts...)
}

func (c *Client) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return call[Appointment](ctx, c, "CancelAppointment", in, opts...)
}

func (c *Client) UpdateAppointment(ctx context.Context, in *UpdateAppointmentRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return call[Appointment](ctx, c, "UpdateAppointment", in, opts...)
}

func (c *Client) SubmitFeedback(ctx context.Context, in *FeedbackRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return call[Appointment](ctx, c, "SubmitFeedback", in, opts...)
}

func (c *Client) SendReminder(ctx context.Context, in *SendReminderRequest, opts ...grpc.CallOption) (*SendReminderResponse, error) {
	return call[SendReminderResponse](ctx, c, "SendReminder", in, opts...)
}

func (c *Client) CalendarEvents(ctx context.Context, in *CalendarEventsRequest, opts ...grpc.CallOption) (*CalendarEventsResponse, error) {
	return call[CalendarEventsResponse](ctx, c, "CalendarEvents", in, opts...)
}

func (c *Client) ExportAppointments(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*File, error) {
	return call[File](ctx, c, "ExportAppointments", in, opts...)
}

func (c *Client) CalendarICS(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*File, error) {
	return call[File](ctx, c, "CalendarICS", in, opts...)
}

func (c *Client) Statistics(ctx context.Context, in *StatisticsRequest, opts ...grpc.CallOption) (*Statistics, error) {
	return call[Statistics](ctx, c, "Statistics", in, opts...)
}
