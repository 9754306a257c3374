package provisioning

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository/mocks"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

type provisionerMock struct{ mock.Mock }

var _ ports.SiteProvisioner = (*provisionerMock)(nil)

func (m *provisionerMock) CreateCustomerSite(ctx context.Context, username, email, password string) (*ports.ProvisionedSite, error) {
	args := m.Called(ctx, username, email, password)
	site, _ := args.Get(0).(*ports.ProvisionedSite)
	return site, args.Error(1)
}

func (m *provisionerMock) CheckSiteExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *provisionerMock) DeleteCustomerSite(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

const (
	testUser     = "ana1a2b3c"
	testPassword = "CLAVE-FIJA"
)

func newUseCase(t *testing.T) (*UseCase, *mocks.SiteRepository, *provisionerMock) {
	t.Helper()
	sites := &mocks.SiteRepository{}
	prov := &provisionerMock{}
	uc := NewUseCase(sites, prov, logger.Nop())
	uc.newUsername = func(string) string { return testUser }
	uc.newPassword = func() string { return testPassword }
	uc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		sites.AssertExpectations(t)
		prov.AssertExpectations(t)
	})
	return uc, sites, prov
}

var req = CreateSiteRequest{UserID: "u1", Email: "ana@example.com"}

func TestCreateSite_Exito(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil)
	prov.On("CreateCustomerSite", mock.Anything, testUser, "ana@example.com", testPassword).
		Return(&ports.ProvisionedSite{SiteURL: "https://ana.erp.example.com"}, nil)
	prov.On("CheckSiteExists", mock.Anything, testUser).Return(true, nil)
	sites.On("Create", mock.Anything, mock.MatchedBy(func(s *entity.ERPSite) bool {
		return s.UserID == "u1" && s.Username == testUser && s.Status == entity.SiteStatusActive && s.AdminPassword == testPassword
	})).Return(nil)

	site, created, err := uc.CreateSite(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "https://ana.erp.example.com", site.SiteURL)
}

func TestCreateSite_DevuelveExistente(t *testing.T) {
	uc, sites, _ := newUseCase(t)
	existing := &entity.ERPSite{ID: "s1", UserID: "u1", Status: entity.SiteStatusActive}
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(existing, nil)

	site, created, err := uc.CreateSite(context.Background(), req)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, site)
}

func TestCreateSite_FalloRemotoNoPersiste(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil)
	prov.On("CreateCustomerSite", mock.Anything, testUser, "ana@example.com", testPassword).
		Return(nil, context.DeadlineExceeded)

	_, _, err := uc.CreateSite(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	sites.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Un sitio creado pero sin confirmar se borra: el reintento crearía otro y este quedaría huérfano.
func TestCreateSite_VerificacionFallidaCompensa(t *testing.T) {
	for name, check := range map[string][]any{
		"no existe": {false, nil},
		"timeout":   {false, context.DeadlineExceeded},
	} {
		t.Run(name, func(t *testing.T) {
			uc, sites, prov := newUseCase(t)
			sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil)
			prov.On("CreateCustomerSite", mock.Anything, testUser, mock.Anything, mock.Anything).
				Return(&ports.ProvisionedSite{SiteURL: "https://x"}, nil)
			prov.On("CheckSiteExists", mock.Anything, testUser).Return(check...)
			prov.On("DeleteCustomerSite", mock.Anything, testUser).Return(nil).Once()

			_, _, err := uc.CreateSite(context.Background(), req)

			assert.ErrorIs(t, err, domain.ErrProviderFailure)
			sites.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateSite_VerificacionFallida_BorradoFallidoConservaElError(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil)
	prov.On("CreateCustomerSite", mock.Anything, testUser, mock.Anything, mock.Anything).
		Return(&ports.ProvisionedSite{SiteURL: "https://x"}, nil)
	prov.On("CheckSiteExists", mock.Anything, testUser).Return(false, nil)
	prov.On("DeleteCustomerSite", mock.Anything, testUser).Return(errors.New("502")).Once()

	_, _, err := uc.CreateSite(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.ErrorIs(t, err, ErrSiteNotConfirmed)
}

// Si el registro local falla después de crear el sitio remoto, el sitio remoto se borra.
func TestCreateSite_CompensaSiFallaElRegistro(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil)
	prov.On("CreateCustomerSite", mock.Anything, testUser, mock.Anything, mock.Anything).
		Return(&ports.ProvisionedSite{SiteURL: "https://x"}, nil)
	prov.On("CheckSiteExists", mock.Anything, testUser).Return(true, nil)
	sites.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicate)
	prov.On("DeleteCustomerSite", mock.Anything, testUser).Return(nil).Once()

	_, _, err := uc.CreateSite(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateSite_CompensaAunqueSeCanceleLaPeticion(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	ctx, cancel := context.WithCancel(context.Background())
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil)
	prov.On("CreateCustomerSite", mock.Anything, testUser, mock.Anything, mock.Anything).
		Return(&ports.ProvisionedSite{SiteURL: "https://x"}, nil)
	prov.On("CheckSiteExists", mock.Anything, testUser).Return(true, nil)
	sites.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(context.Canceled)
	prov.On("DeleteCustomerSite", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), testUser).Return(nil).Once()

	_, _, err := uc.CreateSite(ctx, req)
	assert.Error(t, err)
}

func TestGetSite(t *testing.T) {
	uc, sites, _ := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(nil, nil).Once()

	_, err := uc.GetSite(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSite(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(&entity.ERPSite{ID: "s1", Username: testUser}, nil)
	prov.On("DeleteCustomerSite", mock.Anything, testUser).Return(nil)
	sites.On("UpdateStatus", mock.Anything, "s1", entity.SiteStatusSuspended).Return(nil)

	require.NoError(t, uc.DeleteSite(context.Background(), "u1"))
}

func TestDeleteSite_FalloRemotoNoSuspende(t *testing.T) {
	uc, sites, prov := newUseCase(t)
	sites.On("FindCurrentByUser", mock.Anything, "u1").Return(&entity.ERPSite{ID: "s1", Username: testUser}, nil)
	prov.On("DeleteCustomerSite", mock.Anything, testUser).Return(errors.New("502"))

	err := uc.DeleteSite(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	sites.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateUsername(t *testing.T) {
	re := regexp.MustCompile(`^[a-z0-9]+[0-9a-f]{6}$`)
	cases := map[string]string{
		"Ana.Maria+test@Example.com": "anamariatest",
		"_.-@x.io":                   "user",
		"un.nombre.muy.largo.que.supera.el.limite@x.io": "unnombremuylargoques",
	}
	for email, base := range cases {
		u := GenerateUsername(email)
		assert.Regexp(t, re, u)
		assert.Equal(t, base, u[:len(u)-6], email)
	}
	assert.NotEqual(t, GenerateUsername("a@b.c"), GenerateUsername("a@b.c"))
}
