// Command nuke-drill fires bursts of destructive actions at a guild you own,
// to verify detection thresholds and punishment behavior end to end. Run it
// with a throwaway admin bot account on a dedicated test server.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func main() {
	var (
		token   = flag.String("token", "", "bot token of the drill account")
		guildID = flag.String("guild", "", "test guild ID")
		mode    = flag.String("mode", "channel-create", "drill mode: channel-create, channel-delete, role-create, role-delete")
		count   = flag.Int("count", 5, "number of actions to fire")
		delay   = flag.Duration("delay", 100*time.Millisecond, "delay between actions")
	)
	flag.Parse()

	if *token == "" || *guildID == "" {
		log.Fatal("both -token and -guild are required")
	}

	dg, err := discordgo.New("Bot " + *token)
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	if err := dg.Open(); err != nil {
		log.Fatalf("gateway: %v", err)
	}
	defer dg.Close()

	start := time.Now()
	var fired int

	switch *mode {
	case "channel-create":
		fired = createChannels(dg, *guildID, *count, *delay)
	case "channel-delete":
		fired = deleteDrillChannels(dg, *guildID, *count, *delay)
	case "role-create":
		fired = createRoles(dg, *guildID, *count, *delay)
	case "role-delete":
		fired = deleteDrillRoles(dg, *guildID, *count, *delay)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	elapsed := time.Since(start)
	fmt.Printf("fired %d %s actions in %v", fired, *mode, elapsed)
	if fired > 0 {
		fmt.Printf(" (%v avg)", elapsed/time.Duration(fired))
	}
	fmt.Println()
}

const drillPrefix = "drill-"

func createChannels(dg *discordgo.Session, guildID string, count int, delay time.Duration) int {
	fired := 0
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%schannel-%d", drillPrefix, i+1)
		ch, err := dg.GuildChannelCreate(guildID, name, discordgo.ChannelTypeGuildText)
		if err != nil {
			log.Printf("create channel %d: %v", i+1, err)
			continue
		}
		log.Printf("created channel %s (%s)", ch.Name, ch.ID)
		fired++
		time.Sleep(delay)
	}
	return fired
}

func deleteDrillChannels(dg *discordgo.Session, guildID string, count int, delay time.Duration) int {
	channels, err := dg.GuildChannels(guildID)
	if err != nil {
		log.Printf("list channels: %v", err)
		return 0
	}

	fired := 0
	for _, ch := range channels {
		if fired >= count || !strings.HasPrefix(ch.Name, drillPrefix) {
			continue
		}
		if _, err := dg.ChannelDelete(ch.ID); err != nil {
			log.Printf("delete channel %s: %v", ch.Name, err)
			continue
		}
		log.Printf("deleted channel %s (%s)", ch.Name, ch.ID)
		fired++
		time.Sleep(delay)
	}
	return fired
}

func createRoles(dg *discordgo.Session, guildID string, count int, delay time.Duration) int {
	fired := 0
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%srole-%d", drillPrefix, i+1)
		role, err := dg.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name})
		if err != nil {
			log.Printf("create role %d: %v", i+1, err)
			continue
		}
		log.Printf("created role %s (%s)", role.Name, role.ID)
		fired++
		time.Sleep(delay)
	}
	return fired
}

func deleteDrillRoles(dg *discordgo.Session, guildID string, count int, delay time.Duration) int {
	roles, err := dg.GuildRoles(guildID)
	if err != nil {
		log.Printf("list roles: %v", err)
		return 0
	}

	fired := 0
	for _, role := range roles {
		if fired >= count || !strings.HasPrefix(role.Name, drillPrefix) {
			continue
		}
		if err := dg.GuildRoleDelete(guildID, role.ID); err != nil {
			log.Printf("delete role %s: %v", role.Name, err)
			continue
		}
		log.Printf("deleted role %s (%s)", role.Name, role.ID)
		fired++
		time.Sleep(delay)
	}
	return fired
}
