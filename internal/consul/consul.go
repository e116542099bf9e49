package consul

import (
	"fmt"
	"os"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the consul agent named by CONSUL_HTTP_ADDR (or the
// library default when unset).
func NewClient() (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this service instance so other services can
// discover it.
func RegisterService(client *consulapi.Client, serviceName, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", serviceName, address, port),
		Name:    serviceName,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering service %s: %w", serviceName, err)
	}
	return nil
}

// GetServiceAddress resolves one healthy instance of a registered service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("querying consul for %s: %w", serviceName, err)
	}
	if len(services) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of %s", serviceName)
	}
	svc := services[0].Service
	return svc.Address, svc.Port, nil
}

// ServicePort reads the port this instance should register under.
func ServicePort() int {
	port, err := strconv.Atoi(os.Getenv("SERVICE_PORT"))
	if err != nil || port <= 0 {
		return 8080
	}
	return port
}
