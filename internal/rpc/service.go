package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "jobgate.v1.AppointmentService"

// FullMethod returns the gRPC path of a method, as seen by interceptors.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Service is the appointment API. Every method is unary.
type Service interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)

	GetProfile(context.Context, *Empty) (*User, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error)
	GetPreferences(context.Context, *Empty) (*Preferences, error)
	UpdatePreferences(context.Context, *UpdatePreferencesRequest) (*Preferences, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)

	ListUniversities(context.Context, *ListUniversitiesRequest) (*ListUniversitiesResponse, error)
	GetUniversity(context.Context, *IDRequest) (*University, error)
	CreateUniversity(context.Context, *University) (*University, error)
	UpdateUniversity(context.Context, *University) (*University, error)
	DeleteUniversity(context.Context, *IDRequest) (*Empty, error)
	MyUniversity(context.Context, *Empty) (*University, error)
	ListUniversityStaff(context.Context, *IDRequest) (*ListUsersResponse, error)

	ListThemes(context.Context, *Empty) (*ListThemesResponse, error)
	CreateTheme(context.Context, *Theme) (*Theme, error)

	ListAgendas(context.Context, *ListAgendasRequest) (*ListAgendasResponse, error)
	GetAgenda(context.Context, *IDRequest) (*Agenda, error)
	CreateAgenda(context.Context, *Agenda) (*Agenda, error)
	UpdateAgenda(context.Context, *UpdateAgendaRequest) (*Agenda, error)
	DeleteAgenda(context.Context, *IDRequest) (*Empty, error)
	AssignAgendaStaff(context.Context, *StaffAssignment) (*StaffAssignment, error)

	ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error)
	GetSlot(context.Context, *IDRequest) (*Slot, error)
	CreateSlot(context.Context, *Slot) (*Slot, error)
	UpdateSlot(context.Context, *UpdateSlotRequest) (*Slot, error)
	DeleteSlot(context.Context, *IDRequest) (*Empty, error)
	AvailableSlots(context.Context, *AvailableSlotsRequest) (*ListSlotsResponse, error)
	BulkCreateSlots(context.Context, *BulkCreateSlotsRequest) (*BulkCreateSlotsResponse, error)
	CheckSlotConflicts(context.Context, *CheckConflictsRequest) (*CheckConflictsResponse, error)
	MonthView(context.Context, *MonthViewRequest) (*MonthView, error)

	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	GetAppointment(context.Context, *IDRequest) (*Appointment, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*Appointment, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*Appointment, error)
	UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*Appointment, error)
	SubmitFeedback(context.Context, *FeedbackRequest) (*Appointment, error)
	SendReminder(context.Context, *SendReminderRequest) (*SendReminderResponse, error)
	CalendarEvents(context.Context, *CalendarEventsRequest) (*CalendarEventsResponse, error)
	ExportAppointments(context.Context, *ExportRequest) (*File, error)
	CalendarICS(context.Context, *ExportRequest) (*File, error)

	Statistics(context.Context, *StatisticsRequest) (*Statistics, error)
}

// unary adapts a Service method expression to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(Service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Service), ctx, req.(*Req))
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, h)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Service)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", Service.Register),
		unary("Login", Service.Login),
		unary("RefreshToken", Service.RefreshToken),
		unary("Logout", Service.Logout),
		unary("GetProfile", Service.GetProfile),
		unary("UpdateProfile", Service.UpdateProfile),
		unary("GetPreferences", Service.GetPreferences),
		unary("UpdatePreferences", Service.UpdatePreferences),
		unary("ListUsers", Service.ListUsers),
		unary("ListUniversities", Service.ListUniversities),
		unary("GetUniversity", Service.GetUniversity),
		unary("CreateUniversity", Service.CreateUniversity),
		unary("UpdateUniversity", Service.UpdateUniversity),
		unary("DeleteUniversity", Service.DeleteUniversity),
		unary("MyUniversity", Service.MyUniversity),
		unary("ListUniversityStaff", Service.ListUniversityStaff),
		unary("ListThemes", Service.ListThemes),
		unary("CreateTheme", Service.CreateTheme),
		unary("ListAgendas", Service.ListAgendas),
		unary("GetAgenda", Service.GetAgenda),
		unary("CreateAgenda", Service.CreateAgenda),
		unary("UpdateAgenda", Service.UpdateAgenda),
		unary("DeleteAgenda", Service.DeleteAgenda),
		unary("AssignAgendaStaff", Service.AssignAgendaStaff),
		unary("ListSlots", Service.ListSlots),
		unary("GetSlot", Service.GetSlot),
		unary("CreateSlot", Service.CreateSlot),
		unary("UpdateSlot", Service.UpdateSlot),
		unary("DeleteSlot", Service.DeleteSlot),
		unary("AvailableSlots", Service.AvailableSlots),
		unary("BulkCreateSlots", Service.BulkCreateSlots),
		unary("CheckSlotConflicts", Service.CheckSlotConflicts),
		unary("MonthView", Service.MonthView),
		unary("ListAppointments", Service.ListAppointments),
		unary("GetAppointment", Service.GetAppointment),
		unary("BookAppointment", Service.BookAppointment),
		unary("CancelAppointment", Service.CancelAppointment),
		unary("UpdateAppointment", Service.UpdateAppointment),
		unary("SubmitFeedback", Service.SubmitFeedback),
		unary("SendReminder", Service.SendReminder),
		unary("CalendarEvents", Service.CalendarEvents),
		unary("ExportAppointments", Service.ExportAppointments),
		unary("CalendarICS", Service.CalendarICS),
		unary("Statistics", Service.Statistics),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobgate/v1/appointment.proto",
}

func RegisterService(s grpc.ServiceRegistrar, srv Service) {
	s.RegisterService(&ServiceDesc, srv)
}

// Unimplemented answers every method with codes.Unimplemented. Embed it so
// new methods do not break existing implementations.
type Unimplemented struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (Unimplemented) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, unimplemented("Register")
}
func (Unimplemented) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, unimplemented("Login")
}
func (Unimplemented) RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error) {
	return nil, unimplemented("RefreshToken")
}
func (Unimplemented) Logout(context.Context, *LogoutRequest) (*Empty, error) {
	return nil, unimplemented("Logout")
}
func (Unimplemented) GetProfile(context.Context, *Empty) (*User, error) {
	return nil, unimplemented("GetProfile")
}
func (Unimplemented) UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error) {
	return nil, unimplemented("UpdateProfile")
}
func (Unimplemented) GetPreferences(context.Context, *Empty) (*Preferences, error) {
	return nil, unimplemented("GetPreferences")
}
func (Unimplemented) UpdatePreferences(context.Context, *UpdatePreferencesRequest) (*Preferences, error) {
	return nil, unimplemented("UpdatePreferences")
}
func (Unimplemented) ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error) {
	return nil, unimplemented("ListUsers")
}
func (Unimplemented) ListUniversities(context.Context, *ListUniversitiesRequest) (*ListUniversitiesResponse, error) {
	return nil, unimplemented("ListUniversities")
}
func (Unimplemented) GetUniversity(context.Context, *IDRequest) (*University, error) {
	return nil, unimplemented("GetUniversity")
}
func (Unimplemented) CreateUniversity(context.Context, *University) (*University, error) {
	return nil, unimplemented("CreateUniversity")
}
func (Unimplemented) UpdateUniversity(context.Context, *University) (*University, error) {
	return nil, unimplemented("UpdateUniversity")
}
func (Unimplemented) DeleteUniversity(context.Context, *IDRequest) (*Empty, error) {
	return nil, unimplemented("DeleteUniversity")
}
func (Unimplemented) MyUniversity(context.Context, *Empty) (*University, error) {
	return nil, unimplemented("MyUniversity")
}
func (Unimplemented) ListUniversityStaff(context.Context, *IDRequest) (*ListUsersResponse, error) {
	return nil, unimplemented("ListUniversityStaff")
}
func (Unimplemented) ListThemes(context.Context, *Empty) (*ListThemesResponse, error) {
	return nil, unimplemented("ListThemes")
}
func (Unimplemented) CreateTheme(context.Context, *Theme) (*Theme, error) {
	return nil, unimplemented("CreateTheme")
}
func (Unimplemented) ListAgendas(context.Context, *ListAgendasRequest) (*ListAgendasResponse, error) {
	return nil, unimplemented("ListAgendas")
}
func (Unimplemented) GetAgenda(context.Context, *IDRequest) (*Agenda, error) {
	return nil, unimplemented("GetAgenda")
}
func (Unimplemented) CreateAgenda(context.Context, *Agenda) (*Agenda, error) {
	return nil, unimplemented("CreateAgenda")
}
func (Unimplemented) UpdateAgenda(context.Context, *UpdateAgendaRequest) (*Agenda, error) {
	return nil, unimplemented("UpdateAgenda")
}
func (Unimplemented) DeleteAgenda(context.Context, *IDRequest) (*Empty, error) {
	return nil, unimplemented("DeleteAgenda")
}
func (Unimplemented) AssignAgendaStaff(context.Context, *StaffAssignment) (*StaffAssignment, error) {
	return nil, unimplemented("AssignAgendaStaff")
}
func (Unimplemented) ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error) {
	return nil, unimplemented("ListSlots")
}
func (Unimplemented) GetSlot(context.Context, *IDRequest) (*Slot, error) {
	return nil, unimplemented("GetSlot")
}
func (Unimplemented) CreateSlot(context.Context, *Slot) (*Slot, error) {
	return nil, unimplemented("CreateSlot")
}
func (Unimplemented) UpdateSlot(context.Context, *UpdateSlotRequest) (*Slot, error) {
	return nil, unimplemented("UpdateSlot")
}
func (Unimplemented) DeleteSlot(context.Context, *IDRequest) (*Empty, error) {
	return nil, unimplemented("DeleteSlot")
}
func (Unimplemented) AvailableSlots(context.Context, *AvailableSlotsRequest) (*ListSlotsResponse, error) {
	return nil, unimplemented("AvailableSlots")
}
func (Unimplemented) BulkCreateSlots(context.Context, *BulkCreateSlotsRequest) (*BulkCreateSlotsResponse, error) {
	return nil, unimplemented("BulkCreateSlots")
}
func (Unimplemented) CheckSlotConflicts(context.Context, *CheckConflictsRequest) (*CheckConflictsResponse, error) {
	return nil, unimplemented("CheckSlotConflicts")
}
func (Unimplemented) MonthView(context.Context, *MonthViewRequest) (*MonthView, error) {
	return nil, unimplemented("MonthView")
}
func (Unimplemented) ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListAppointments")
}
func (Unimplemented) GetAppointment(context.Context, *IDRequest) (*Appointment, error) {
	return nil, unimplemented("GetAppointment")
}
func (Unimplemented) BookAppointment(context.Context, *BookAppointmentRequest) (*Appointment, error) {
	return nil, unimplemented("BookAppointment")
}
func (Unimplemented) CancelAppointment(context.Context, *CancelAppointmentRequest) (*Appointment, error) {
	return nil, unimplemented("CancelAppointment")
}
func (Unimplemented) UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*Appointment, error) {
	return nil, unimplemented("UpdateAppointment")
}
func (Unimplemented) SubmitFeedback(context.Context, *FeedbackRequest) (*Appointment, error) {
	return nil, unimplemented("SubmitFeedback")
}
func (Unimplemented) SendReminder(context.Context, *SendReminderRequest) (*SendReminderResponse, error) {
	return nil, unimplemented("SendReminder")
}
func (Unimplemented) CalendarEvents(context.Context, *CalendarEventsRequest) (*CalendarEventsResponse, error) {
	return nil, unimplemented("CalendarEvents")
}
func (Unimplemented) ExportAppointments(context.Context, *ExportRequest) (*File, error) {
	return nil, unimplemented("ExportAppointments")
}
func (Unimplemented) CalendarICS(context.Context, *ExportRequest) (*File, error) {
	return nil, unimplemented("CalendarICS")
}
func (Unimplemented) Statistics(context.Context, *StatisticsRequest) (*Statistics, error) {
	return nil, unimplemented("Statistics")
}
