package monitor

import (
	"time"

	"github.com/uptrace/bun"
)

// Model is a configured monitor. Protocol-specific fields are left zero for
// types that do not use them.
type Model struct {
	bun.BaseModel `bun:"table:monitors,alias:m"`

	ID      string `bun:"id,pk" json:"id"`
	OwnerID string `bun:"owner_id" json:"owner_id"`
	Name    string `bun:"name" json:"name"`
	Type    string `bun:"type" json:"type"`
	Active  bool   `bun:"active" json:"active"`

	// ParentID links a monitor into a group hierarchy.
	ParentID string `bun:"parent_id,nullzero" json:"parent_id,omitempty"`

	Interval       int `bun:"interval" json:"interval" validate:"gte=0"`
	RetryInterval  int `bun:"retry_interval" json:"retry_interval" validate:"gte=0"`
	ResendInterval int `bun:"resend_interval" json:"resend_interval" validate:"gte=0"`
	MaxRetries     int `bun:"max_retries" json:"max_retries" validate:"gte=0"`
	Timeout        int `bun:"timeout" json:"timeout"`

	UpsideDown         bool `bun:"upside_down" json:"upside_down"`
	ExpiryNotification bool `bun:"expiry_notification" json:"expiry_notification"`

	// http / keyword / json-query
	URL                  string            `bun:"url,nullzero" json:"url,omitempty"`
	Method               string            `bun:"method,nullzero" json:"method,omitempty"`
	Headers              map[string]string `bun:"headers,type:jsonb,nullzero" json:"headers,omitempty"`
	Body                 string            `bun:"body,nullzero" json:"body,omitempty"`
	BodyEncoding         string            `bun:"body_encoding,nullzero" json:"body_encoding,omitempty"`
	MaxRedirects         int               `bun:"max_redirects" json:"max_redirects"`
	AcceptedStatusCodes  []string          `bun:"accepted_statuscodes,type:jsonb,nullzero" json:"accepted_statuscodes,omitempty"`
	IgnoreTLS            bool              `bun:"ignore_tls" json:"ignore_tls"`
	Keyword              string            `bun:"keyword,nullzero" json:"keyword,omitempty"`
	InvertKeyword        bool              `bun:"invert_keyword" json:"invert_keyword"`
	JSONPath             string            `bun:"json_path,nullzero" json:"json_path,omitempty"`
	ExpectedValue        string            `bun:"expected_value,nullzero" json:"expected_value,omitempty"`
	CheckContentParam    bool              `bun:"check_content_parameter" json:"check_content_parameter"`
	AuthMethod           string            `bun:"auth_method,nullzero" json:"auth_method,omitempty"`
	BasicAuthUser        string            `bun:"basic_auth_user,nullzero" json:"basic_auth_user,omitempty"`
	BasicAuthPass        string            `bun:"basic_auth_pass,nullzero" json:"-"`
	AuthDomain           string            `bun:"auth_domain,nullzero" json:"auth_domain,omitempty"`
	AuthWorkstation      string            `bun:"auth_workstation,nullzero" json:"auth_workstation,omitempty"`
	OAuthTokenURL        string            `bun:"oauth_token_url,nullzero" json:"oauth_token_url,omitempty"`
	OAuthClientID        string            `bun:"oauth_client_id,nullzero" json:"oauth_client_id,omitempty"`
	OAuthClientSecret    string            `bun:"oauth_client_secret,nullzero" json:"-"`
	OAuthScopes          string            `bun:"oauth_scopes,nullzero" json:"oauth_scopes,omitempty"`
	TLSCert              string            `bun:"tls_cert,nullzero" json:"-"`
	TLSKey               string            `bun:"tls_key,nullzero" json:"-"`
	TLSCa                string            `bun:"tls_ca,nullzero" json:"-"`
	ProxyURL             string            `bun:"proxy_url,nullzero" json:"proxy_url,omitempty"`

	// port / ping / dns / game
	Hostname   string `bun:"hostname,nullzero" json:"hostname,omitempty"`
	Port       int    `bun:"port" json:"port,omitempty"`
	PacketSize int    `bun:"packet_size" json:"packet_size,omitempty"`

	DNSResolveServer string `bun:"dns_resolve_server,nullzero" json:"dns_resolve_server,omitempty"`
	DNSResolvePort   int    `bun:"dns_resolve_port" json:"dns_resolve_port,omitempty"`
	DNSResolveType   string `bun:"dns_resolve_type,nullzero" json:"dns_resolve_type,omitempty"`
	DNSLastResult    string `bun:"dns_last_result,nullzero" json:"dns_last_result,omitempty"`

	// push
	PushToken string `bun:"push_token,nullzero" json:"-"`

	// docker
	DockerContainer string `bun:"docker_container,nullzero" json:"docker_container,omitempty"`
	DockerHost      string `bun:"docker_host,nullzero" json:"docker_host,omitempty"`
	DockerTLS       bool   `bun:"docker_tls" json:"docker_tls,omitempty"`

	// mqtt
	MQTTTopic          string `bun:"mqtt_topic,nullzero" json:"mqtt_topic,omitempty"`
	MQTTUsername       string `bun:"mqtt_username,nullzero" json:"mqtt_username,omitempty"`
	MQTTPassword       string `bun:"mqtt_password,nullzero" json:"-"`
	MQTTSuccessMessage string `bun:"mqtt_success_message,nullzero" json:"mqtt_success_message,omitempty"`

	// kafka
	KafkaBrokers []string `bun:"kafka_brokers,type:jsonb,nullzero" json:"kafka_brokers,omitempty"`
	KafkaTopic   string   `bun:"kafka_topic,nullzero" json:"kafka_topic,omitempty"`
	KafkaMessage string   `bun:"kafka_message,nullzero" json:"kafka_message,omitempty"`

	// databases
	DatabaseConnectionString string `bun:"database_connection_string,nullzero" json:"-"`
	DatabaseQuery            string `bun:"database_query,nullzero" json:"database_query,omitempty"`

	// radius
	RadiusSecret    string `bun:"radius_secret,nullzero" json:"-"`
	RadiusUsername  string `bun:"radius_username,nullzero" json:"radius_username,omitempty"`
	RadiusPassword  string `bun:"radius_password,nullzero" json:"-"`
	RadiusCalledID  string `bun:"radius_called_station_id,nullzero" json:"radius_called_station_id,omitempty"`
	RadiusCallingID string `bun:"radius_calling_station_id,nullzero" json:"radius_calling_station_id,omitempty"`

	// grpc
	GRPCURL       string `bun:"grpc_url,nullzero" json:"grpc_url,omitempty"`
	GRPCService   string `bun:"grpc_service,nullzero" json:"grpc_service,omitempty"`
	GRPCMethod    string `bun:"grpc_method,nullzero" json:"grpc_method,omitempty"`
	GRPCBody      string `bun:"grpc_body,nullzero" json:"grpc_body,omitempty"`
	GRPCEnableTLS bool   `bun:"grpc_enable_tls" json:"grpc_enable_tls,omitempty"`

	// snmp
	SNMPCommunity string `bun:"snmp_community,nullzero" json:"snmp_community,omitempty"`
	SNMPOID       string `bun:"snmp_oid,nullzero" json:"snmp_oid,omitempty"`
	SNMPCondition string `bun:"snmp_condition,nullzero" json:"snmp_condition,omitempty"`
	SNMPValue     string `bun:"snmp_value,nullzero" json:"snmp_value,omitempty"`

	// steam / gamedig
	SteamAPIKey string `bun:"steam_api_key,nullzero" json:"-"`
	Game        string `bun:"game,nullzero" json:"game,omitempty"`

	// shell hooks executed on up/down transitions
	PreUpCommand   string `bun:"pre_up_command,nullzero" json:"pre_up_command,omitempty"`
	PreDownCommand string `bun:"pre_down_command,nullzero" json:"pre_down_command,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// PublicJSON strips credentials and internal fields for notification payloads
// and live events. The json tags above already hide secrets, so a plain
// marshal of the model is safe; this type exists to pin the exposed subset.
type PublicJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`
	Active   bool   `json:"active"`
}

func (m *Model) Public() PublicJSON {
	return PublicJSON{
		ID:       m.ID,
		Name:     m.Name,
		Type:     m.Type,
		URL:      m.URL,
		Hostname: m.Hostname,
		Port:     m.Port,
		Active:   m.Active,
	}
}
