/*
 * Nuts node
 * Copyright (C) 2021 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package vcr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/auth/oauth"
	"github.com/nuts-foundation/nuts-wallet/core"
	nutsHttp "github.com/nuts-foundation/nuts-wallet/http"
	"github.com/nuts-foundation/nuts-wallet/storage"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/holder"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vci"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vp"
)

const (
	walletStoreName        = "wallet"
	keysStoreName          = "keys"
	presentationsStoreName = "presentations"
	// issuerMetadataTimeout bounds loading the metadata of a single issuer at startup.
	issuerMetadataTimeout = 30 * time.Second
	// presentationFlowTTL is the maximum time between receiving an authorization request and answering it.
	presentationFlowTTL = 15 * time.Minute
)

// TransportProvider provides the Transport for outbound calls to issuers and verifiers.
type TransportProvider interface {
	Transport() nutsHttp.Transport
}

// NewVCRInstance creates a new vcr instance. Its dependencies must be configured before it.
func NewVCRInstance(storageEngine storage.Engine, transportProvider TransportProvider) VCR {
	return &vcr{
		config:            DefaultConfig(),
		storageEngine:     storageEngine,
		transportProvider: transportProvider,
	}
}

type vcr struct {
	config            Config
	storageEngine     storage.Engine
	transportProvider TransportProvider
	transport         nutsHttp.Transport
	trustStore        *core.TrustStore
	codec             *credential.Codec
	wallet            *holder.BBoltWallet
	keys              *holder.SoftwareKeys
	presentations     *audit.PresentationStore
	clients           map[string]*openid4vci.Client
	issuanceStates    []*openid4vci.StateStore
	relyingParty      *openid4vp.RelyingParty
	ctx               context.Context
	cancel            context.CancelFunc
	routines          sync.WaitGroup
}

// Name returns the name of the engine.
func (c *vcr) Name() string {
	return ModuleName
}

// ConfigKey returns the config key of the engine.
func (c *vcr) ConfigKey() string {
	return "vcr"
}

// Config returns the configuration of the engine.
func (c *vcr) Config() interface{} {
	return &c.config
}

// Configure loads the trust anchors, opens the wallet and resolves the metadata of the trusted issuers.
// Issuers of which the metadata can't be loaded are left out, they don't fail the startup.
func (c *vcr) Configure(_ core.ServerConfig) error {
	var err error
	if c.trustStore, err = c.config.TrustAnchors.load(); err != nil {
		return fmt.Errorf("unable to load trust anchors: %w", err)
	}
	if len(c.trustStore.Certificates()) == 0 {
		log.Logger().Warn("No trust anchors configured, credentials and signed request objects can't be verified")
	}
	c.transport = c.transportProvider.Transport()
	if c.transport == nil {
		return errors.New("no HTTP transport available")
	}
	c.codec = credential.NewCodec(c.trustStore)
	if err = c.openStores(); err != nil {
		return err
	}

	issuers, err := c.config.allIssuers()
	if err != nil {
		return err
	}
	sessions := c.storageEngine.GetSessionDatabase()
	c.clients = make(map[string]*openid4vci.Client)
	c.issuanceStates = nil
	var errs *multierror.Error
	for _, issuer := range issuers {
		clientConfig, err := c.loadClientConfig(issuer)
		if err != nil {
			log.Logger().
				WithError(err).
				WithField(core.LogFieldCredentialIssuer, issuer.CredentialIssuerIdentifier).
				Error("Unable to load credential issuer, it won't be available for issuance")
			errs = multierror.Append(errs, err)
			continue
		}
		issuerID := normalizeIssuerID(clientConfig.CredentialIssuerIdentifier)
		if _, exists := c.clients[issuerID]; exists {
			log.Logger().
				WithField(core.LogFieldCredentialIssuer, clientConfig.CredentialIssuerIdentifier).
				Warn("Credential issuer is configured more than once, using the first entry")
			continue
		}
		states := openid4vci.NewStateStore(sessions.GetStore(c.config.OpenID4VCI.FlowTTL, "openid4vci", issuerID))
		c.issuanceStates = append(c.issuanceStates, states)
		c.clients[issuerID] = openid4vci.NewClient(*clientConfig, states, c.transport, c.codec, c.wallet, c.keys)
	}
	if len(issuers) > 0 {
		log.Logger().Infof("Loaded %d of %d configured credential issuer(s)", len(c.clients), len(issuers))
	}
	if errs.ErrorOrNil() != nil && len(c.clients) == 0 {
		log.Logger().WithError(errs).Warn("None of the configured credential issuers could be loaded, credential issuance is unavailable")
	}

	c.relyingParty = openid4vp.NewRelyingParty(
		c.config.OpenID4VP,
		openid4vp.NewStateStore(sessions.GetStore(presentationFlowTTL, "openid4vp", "flow")),
		openid4vp.Holder{
			Credentials:     c.wallet,
			Signer:          c.keys,
			DeviceResponses: c.keys,
		},
		c.codec,
		c.presentations,
		c.transport,
		c.trustStore,
	)

	if err = core.RegisterCollectors(openid4vci.Collectors()...); err != nil {
		return err
	}
	return core.RegisterCollectors(openid4vp.Collectors()...)
}

func (c *vcr) openStores() error {
	walletDB, err := c.storageEngine.GetBBoltDB(ModuleName, walletStoreName)
	if err != nil {
		return fmt.Errorf("unable to open wallet: %w", err)
	}
	c.wallet = holder.NewBBoltWallet(walletDB)
	keysDB, err := c.storageEngine.GetBBoltDB(ModuleName, keysStoreName)
	if err != nil {
		return fmt.Errorf("unable to open key store: %w", err)
	}
	if c.keys, err = holder.NewSoftwareKeys(keysDB); err != nil {
		return err
	}
	presentationsDB, err := c.storageEngine.GetBBoltDB(ModuleName, presentationsStoreName)
	if err != nil {
		return fmt.Errorf("unable to open presentation audit store: %w", err)
	}
	c.presentations = audit.NewPresentationStore(presentationsDB)
	return nil
}

func (c *vcr) loadClientConfig(issuer openid4vci.IssuerConfig) (*openid4vci.ClientConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), issuerMetadataTimeout)
	defer cancel()
	return openid4vci.LoadClientConfig(ctx, c.transport, issuer, c.config.RedirectURI)
}

// Start starts the periodic removal of expired issuance flows.
func (c *vcr) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	if c.config.OpenID4VCI.CleanupInterval <= 0 || len(c.issuanceStates) == 0 {
		return nil
	}
	c.routines.Add(1)
	go func() {
		defer c.routines.Done()
		c.cleanupExpiredFlows(c.ctx, c.config.OpenID4VCI.CleanupInterval)
	}()
	return nil
}

// Shutdown stops the background routines.
func (c *vcr) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.routines.Wait()
	return nil
}

func (c *vcr) cleanupExpiredFlows(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, states := range c.issuanceStates {
				if err := states.CleanupExpired(); err != nil {
					log.Logger().WithError(err).Warn("Unable to remove expired issuance flows")
				}
			}
		}
	}
}

func (c *vcr) IssuanceClient(issuerID string) (*openid4vci.Client, error) {
	client, ok := c.clients[normalizeIssuerID(issuerID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIssuer, issuerID)
	}
	return client, nil
}

func (c *vcr) IssuanceClients() []*openid4vci.Client {
	result := make([]*openid4vci.Client, 0, len(c.clients))
	for _, client := range c.clients {
		result = append(result, client)
	}
	slices.SortFunc(result, func(a, b *openid4vci.Client) int {
		return strings.Compare(a.IssuerID(), b.IssuerID())
	})
	return result
}

func (c *vcr) HandleCredentialOffer(ctx context.Context, offerURL string) (*openid4vci.OfferResult, error) {
	offer, err := openid4vci.ParseCredentialOffer(ctx, c.transport, offerURL)
	if err != nil {
		return nil, err
	}
	client, err := c.IssuanceClient(offer.CredentialIssuer)
	if err != nil {
		return nil, err
	}
	// pass the offer by value, so an offer by reference isn't fetched twice
	byValue, err := offerByValue(*offer)
	if err != nil {
		return nil, err
	}
	result, err := client.HandleCredentialOffer(ctx, byValue)
	if err != nil {
		return nil, err
	}
	log.Logger().
		WithField(core.LogFieldCredentialIssuer, result.IssuerID).
		WithField(core.LogFieldCredentialConfiguration, result.ConfigurationID).
		Info("Received credential offer")
	return result, nil
}

func (c *vcr) HandleAuthorizationResponse(ctx context.Context, redirectURL string, dpopNonce string) (*credential.StorableCredential, error) {
	// flows are kept per issuer, the client holding the flow of the state handles the response
	for _, client := range c.IssuanceClients() {
		result, err := client.HandleAuthorizationResponse(ctx, redirectURL, dpopNonce)
		if errors.Is(err, openid4vci.ErrFlowState) {
			continue
		}
		return result, err
	}
	return nil, openid4vci.ErrFlowState
}

func (c *vcr) RelyingParty() *openid4vp.RelyingParty {
	return c.relyingParty
}

func (c *vcr) Wallet() holder.Wallet {
	return c.wallet
}

func (c *vcr) Presentations(ctx context.Context) ([]audit.PresentationRecord, error) {
	return c.presentations.ListPresentations(ctx)
}

func offerByValue(offer oauth.CredentialOffer) (string, error) {
	data, err := json.Marshal(offer)
	if err != nil {
		return "", err
	}
	return "openid-credential-offer://?" + url.Values{oauth.CredentialOfferParam: []string{string(data)}}.Encode(), nil
}

// normalizeIssuerID makes issuer identifiers that only differ in a trailing slash equal.
func normalizeIssuerID(issuerID string) string {
	return strings.TrimSuffix(issuerID, "/")
}
