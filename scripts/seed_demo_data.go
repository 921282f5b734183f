//go:build ignore
// +build ignore

// Seeds a running audience-console with demo data through the HTTP API:
// a handful of contacts across cashback tiers, one dynamic segment, one
// static list, a newsletter template and a draft campaign wired to both.
//
// Usage:
//
//	go run scripts/seed_demo_data.go [-api http://localhost:8080]
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

const newsletterHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>IGNITE Rewards</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto;">
    <h1 style="color: #e67e22;">Your rewards this month</h1>
    <p>Hi there,</p>
    <p>Gold members earned double cashback this month. Check your balance
    and see what is waiting for you.</p>
    <p><a href="https://rewards.ignite.com/balance">View my balance</a></p>
    <p style="color: #999; font-size: 12px;">IGNITE Rewards</p>
  </div>
</body>
</html>`

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "audience-console base URL")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	contacts := []map[string]any{
		{"email": "ada@example.com", "status": "active", "fields": map[string]any{
			"first_name": "Ada", "opt_in_email": true, "tags": []string{"beta", "newsletter"},
			"cashback_info": map[string]any{"tier": "gold", "enrolled": true, "current_balance": 182.40},
		}},
		{"email": "grace@example.com", "status": "active", "fields": map[string]any{
			"first_name": "Grace", "opt_in_email": true,
			"cashback_info": map[string]any{"tier": "gold", "enrolled": true, "current_balance": 95.00},
		}},
		{"email": "linus@example.com", "status": "active", "fields": map[string]any{
			"first_name": "Linus", "opt_in_email": true,
			"cashback_info": map[string]any{"tier": "silver", "enrolled": true, "current_balance": 12.75},
		}},
		{"email": "margaret@example.com", "status": "active", "fields": map[string]any{
			"first_name": "Margaret", "opt_in_email": false,
			"cashback_info": map[string]any{"tier": "bronze", "enrolled": false},
		}},
		{"email": "dennis@example.com", "status": "unsubscribed", "fields": map[string]any{
			"first_name": "Dennis", "opt_in_email": true,
			"cashback_info": map[string]any{"tier": "gold", "enrolled": true, "current_balance": 301.10},
		}},
	}
	for _, c := range contacts {
		post(client, *apiURL+"/api/contacts", c, nil)
	}
	log.Printf("Seeded %d contacts", len(contacts))

	var dynamic struct {
		ID string `json:"id"`
	}
	post(client, *apiURL+"/api/segments", map[string]any{
		"name":        "Gold members",
		"description": "Active contacts on the gold cashback tier",
		"type":        "dynamic",
		"rules": map[string]any{
			"operator": "AND",
			"conditions": []map[string]any{
				{"field": "cashback_info.tier", "operator": "equals", "value": "gold"},
				{"field": "opt_in_email", "operator": "is_true"},
			},
		},
	}, &dynamic)
	log.Printf("Seeded dynamic segment %s", dynamic.ID)

	var static struct {
		ID string `json:"id"`
	}
	post(client, *apiURL+"/api/segments", map[string]any{
		"name": "Launch VIPs",
		"type": "static",
	}, &static)
	post(client, *apiURL+"/api/segments/"+static.ID+"/members", map[string]any{
		"emails": []string{"ada@example.com", "margaret@example.com"},
	}, nil)
	log.Printf("Seeded static segment %s with 2 members", static.ID)

	var tpl struct {
		ID string `json:"id"`
	}
	post(client, *apiURL+"/api/templates", map[string]any{
		"name":         "Monthly rewards newsletter",
		"subject":      "Your rewards this month",
		"html_content": newsletterHTML,
		"text_content": "Gold members earned double cashback this month.",
	}, &tpl)
	log.Printf("Seeded template %s", tpl.ID)

	var camp struct {
		ID string `json:"id"`
	}
	post(client, *apiURL+"/api/campaigns", map[string]any{
		"name":                "August gold newsletter",
		"template_id":         tpl.ID,
		"include_segment_ids": []string{dynamic.ID},
		"exclude_segment_ids": []string{static.ID},
	}, &camp)
	log.Printf("Seeded draft campaign %s", camp.ID)

	log.Println("Done. Preview the audience with:")
	fmt.Printf("  curl -s %s/api/campaigns/%s/audience\n", *apiURL, camp.ID)
}

func post(client *http.Client, url string, body any, out any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal %s: %v", url, err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e map[string]any
		json.NewDecoder(resp.Body).Decode(&e)
		log.Fatalf("POST %s: status %d: %v", url, resp.StatusCode, e)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s: %v", url, err)
		}
	}
}
